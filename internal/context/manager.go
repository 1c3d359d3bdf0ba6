package context

import "fmt"

// CompactResult reports what a Compact call would remove. Manager never
// mutates a message store itself — the caller is responsible for actually
// dropping the oldest messages_removed messages once it accepts the plan.
type CompactResult struct {
	MessagesRemoved int
	TokensFreed     int
	NewTokenCount   int
}

// StrategyKind selects which CompactionStrategy variant a Manager uses to
// size its compaction plan.
type StrategyKind int

const (
	// SlidingWindow keeps the last KeepLast messages.
	SlidingWindow StrategyKind = iota
	// KeepUntilThreshold keeps however many trailing messages fit under
	// TargetPercent of the max context window, by average message size.
	KeepUntilThreshold
	// HybridImportance currently keeps the last KeepRecent messages; a
	// future revision can weight in messages with tool calls or key
	// decisions without changing this type's shape.
	HybridImportance
)

// CompactionStrategy parameterizes how Manager.calculateKeepCount decides
// how many trailing messages to keep. Exactly one of KeepLast,
// TargetPercent, or KeepRecent is meaningful, selected by Kind.
type CompactionStrategy struct {
	Kind          StrategyKind
	KeepLast      int
	TargetPercent float64
	KeepRecent    int
}

// DefaultCompactionStrategy keeps the last 20 messages, matching the
// original's default.
func DefaultCompactionStrategy() CompactionStrategy {
	return CompactionStrategy{Kind: SlidingWindow, KeepLast: 20}
}

// Manager is a pure compaction planner: it tracks an estimated current
// token count and a reservation budget, and computes how many messages a
// caller should drop, but it never touches the message store itself.
type Manager struct {
	tokenizer           Tokenizer
	currentTokens       int
	compactionThreshold float64
	reservedForTools    int
	reservedForResponse int
	strategy            CompactionStrategy
}

// NewManager builds a Manager over tokenizer, with the original's defaults:
// an 85%-full compaction threshold, a 2000-token response reservation, and
// a sliding-window-20 strategy.
func NewManager(tokenizer Tokenizer) *Manager {
	return &Manager{
		tokenizer:           tokenizer,
		compactionThreshold: 0.85,
		reservedForResponse: 2000,
		strategy:            DefaultCompactionStrategy(),
	}
}

// MaxTokens returns the tokenizer's context window size.
func (m *Manager) MaxTokens() int { return m.tokenizer.MaxContextTokens() }

// CountTokens counts tokens in a raw string via the underlying tokenizer.
func (m *Manager) CountTokens(text string) int { return m.tokenizer.CountTokens(text) }

// CountMessageTokens counts tokens for one role/content message pair.
func (m *Manager) CountMessageTokens(role, content string) int {
	return m.tokenizer.CountMessageTokens(role, content)
}

// SetCurrentTokens overwrites the manager's tracked token count, e.g. after
// the caller recomputes it from scratch.
func (m *Manager) SetCurrentTokens(tokens int) { m.currentTokens = tokens }

// CurrentTokens returns the manager's tracked token count.
func (m *Manager) CurrentTokens() int { return m.currentTokens }

// ReserveToolTokens sets aside tokens for tool schemas when computing
// AvailableForResponse.
func (m *Manager) ReserveToolTokens(tokens int) { m.reservedForTools = tokens }

// SetResponseReserve sets aside tokens for the model's own response when
// computing AvailableForResponse.
func (m *Manager) SetResponseReserve(tokens int) { m.reservedForResponse = tokens }

// SetStrategy replaces the active compaction strategy.
func (m *Manager) SetStrategy(strategy CompactionStrategy) { m.strategy = strategy }

// SetCompactionThreshold overrides the ratio at which ShouldCompact
// triggers, clamped to [0, 1].
func (m *Manager) SetCompactionThreshold(threshold float64) {
	switch {
	case threshold < 0:
		threshold = 0
	case threshold > 1:
		threshold = 1
	}
	m.compactionThreshold = threshold
}

// ShouldCompact reports whether current usage has crossed the manager's
// (configurable, 85%-by-default) compaction threshold.
func (m *Manager) ShouldCompact() bool {
	max := m.MaxTokens()
	if max == 0 {
		return false
	}
	return float64(m.currentTokens)/float64(max) >= m.compactionThreshold
}

// UsagePercent returns current usage as a 0-100 percentage.
func (m *Manager) UsagePercent() float64 {
	max := m.MaxTokens()
	if max == 0 {
		return 0
	}
	return float64(m.currentTokens) / float64(max) * 100
}

// AvailableForResponse returns the token budget left for a model response
// once tool-schema and response reservations are subtracted.
func (m *Manager) AvailableForResponse() int {
	reserved := m.reservedForTools + m.reservedForResponse
	used := m.currentTokens + reserved
	max := m.MaxTokens()
	if used >= max {
		return 0
	}
	return max - used
}

// calculateKeepCount returns how many trailing messages the active
// strategy would keep out of totalMessages.
func (m *Manager) calculateKeepCount(totalMessages int) int {
	switch m.strategy.Kind {
	case SlidingWindow:
		return min(m.strategy.KeepLast, totalMessages)

	case KeepUntilThreshold:
		if totalMessages == 0 {
			return 0
		}
		targetTokens := int(float64(m.MaxTokens()) * m.strategy.TargetPercent)
		avgTokensPerMessage := m.currentTokens / totalMessages
		if avgTokensPerMessage == 0 {
			return totalMessages
		}
		return min(targetTokens/avgTokensPerMessage, totalMessages)

	case HybridImportance:
		return min(m.strategy.KeepRecent, totalMessages)

	default:
		return totalMessages
	}
}

// Compact plans removal of the oldest messages down to what the active
// strategy would keep, given totalMessages and an estimated per-message
// token cost. It never mutates any message store — the caller drops
// MessagesRemoved messages itself once it accepts the plan, and should
// follow up with SetCurrentTokens(result.NewTokenCount) or a fresh
// recount.
func (m *Manager) Compact(totalMessages, estimatedTokensPerMessage int) (CompactResult, error) {
	if totalMessages == 0 {
		return CompactResult{}, fmt.Errorf("%w: no messages to compact", ErrCompactionFailed)
	}

	keepCount := m.calculateKeepCount(totalMessages)
	if keepCount < 1 {
		keepCount = 1
	}
	if keepCount >= totalMessages {
		return CompactResult{}, fmt.Errorf("%w: no messages can be removed", ErrCompactionFailed)
	}

	messagesRemoved := totalMessages - keepCount
	tokensFreed := messagesRemoved * estimatedTokensPerMessage
	newTokenCount := m.currentTokens - tokensFreed
	if newTokenCount < 0 {
		newTokenCount = 0
	}

	m.currentTokens = newTokenCount

	return CompactResult{
		MessagesRemoved: messagesRemoved,
		TokensFreed:     tokensFreed,
		NewTokenCount:   newTokenCount,
	}, nil
}

// EnsureFits checks whether adding additionalTokens to the manager's
// current usage would exceed the context window; if so it runs one
// compaction pass via Compact. If the turn still would not fit afterward —
// either because Compact had nothing left to remove or because the freed
// tokens weren't enough — it returns a *WindowExceededError, per spec.md
// §7's "compaction attempt, then the caller must drop messages manually"
// contract.
func (m *Manager) EnsureFits(additionalTokens, totalMessages, estimatedTokensPerMessage int) (CompactResult, error) {
	max := m.MaxTokens()
	if m.currentTokens+additionalTokens <= max {
		return CompactResult{}, nil
	}

	result, err := m.Compact(totalMessages, estimatedTokensPerMessage)
	if err != nil {
		return CompactResult{}, &WindowExceededError{Current: m.currentTokens + additionalTokens, Max: max}
	}
	if result.NewTokenCount+additionalTokens > max {
		return result, &WindowExceededError{Current: result.NewTokenCount + additionalTokens, Max: max}
	}
	return result, nil
}
