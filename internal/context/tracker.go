package context

import "sync"

// defaultCompactionThreshold is the tracker's own should-compact ratio,
// distinct from Manager's configurable CompactionStrategy knobs.
const defaultCompactionThreshold = 0.80

// Tracker is the single source of truth for context window usage. All
// reads and writes go through an RWMutex so callers on different
// goroutines (the agent loop updating conversation tokens, a status
// command reading usage) never race.
type Tracker struct {
	mu                  sync.RWMutex
	breakdown           Breakdown
	compactionThreshold float64
}

// NewTracker returns a Tracker with a zero Breakdown and the default 80%
// compaction threshold.
func NewTracker() *Tracker {
	return &Tracker{compactionThreshold: defaultCompactionThreshold}
}

// Update replaces every token source at once, e.g. after a model switch or
// a full context rebuild.
func (t *Tracker) Update(systemPrompt, conversation, toolSchemas, attachments, maxTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakdown = newBreakdown(systemPrompt, conversation, toolSchemas, attachments, maxTokens)
}

// UpdateAttachments replaces only the attachment token count, e.g. when a
// file is attached or removed mid-session.
func (t *Tracker) UpdateAttachments(attachmentTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakdown.Attachments = attachmentTokens
	t.breakdown.recalculateTotal()
}

// UpdateConversation replaces only the conversation-history token count.
func (t *Tracker) UpdateConversation(conversationTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakdown.ConversationHistory = conversationTokens
	t.breakdown.recalculateTotal()
}

// UpdateMaxTokens replaces the model's context window size without
// touching any token source, e.g. on a model switch.
func (t *Tracker) UpdateMaxTokens(maxTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.breakdown.MaxTokens = maxTokens
}

// GetBreakdown returns a snapshot of the current breakdown.
func (t *Tracker) GetBreakdown() Breakdown {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.breakdown
}

// ShouldCompact reports whether usage has crossed the tracker's
// compaction threshold (80% by default, overridable via
// SetCompactionThreshold).
func (t *Tracker) ShouldCompact() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.breakdown.MaxTokens == 0 {
		return false
	}
	ratio := float64(t.breakdown.Total) / float64(t.breakdown.MaxTokens)
	return ratio >= t.compactionThreshold
}

// WouldExceed reports whether adding additionalTokens would push Total
// past MaxTokens.
func (t *Tracker) WouldExceed(additionalTokens int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.breakdown.Total+additionalTokens > t.breakdown.MaxTokens
}

// UsagePercent returns the current usage percentage.
func (t *Tracker) UsagePercent() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.breakdown.UsagePercent()
}

// Available returns the remaining token budget.
func (t *Tracker) Available() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.breakdown.Available()
}

// SetCompactionThreshold overrides the tracker's should-compact ratio,
// clamped to [0, 1].
func (t *Tracker) SetCompactionThreshold(threshold float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case threshold < 0:
		threshold = 0
	case threshold > 1:
		threshold = 1
	}
	t.compactionThreshold = threshold
}
