package policy

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tarkdev/tarkcore/internal/policy/classify"
	"github.com/tarkdev/tarkcore/internal/policy/match"
	"github.com/tarkdev/tarkcore/internal/policy/resolve"
	"github.com/tarkdev/tarkcore/internal/policy/types"
	"github.com/tarkdev/tarkcore/internal/policy/validate"
	"github.com/tarkdev/tarkcore/internal/policystore"
)

// Store is the subset of policystore.Store the engine and its collaborators
// need. policystore.Store satisfies this directly.
type Store interface {
	classify.Store
	resolve.Store
	match.Store

	ToolAvailableInMode(toolID string, mode types.ModeID) (bool, error)
	AvailableTools(mode types.ModeID) ([]types.ToolInfo, error)
	InsertApprovalPattern(p types.ApprovalPattern) (string, error)
	DeleteApprovalPattern(id string) error
	ShellForbiddenSubstrings() ([]string, error)
	AppendAudit(entry types.AuditEntry) error
}

// Clock is injected so tests can control audit timestamps.
type Clock func() time.Time

// Engine is the public facade composing the classifier, resolver, matcher
// and validator into a single approval decision per tool call, per spec.md
// §4.6.
type Engine struct {
	store      Store
	classifier *classify.Classifier
	resolver   *resolve.Resolver
	matcher    *match.Matcher
	validator  *validate.Validator
	log        *slog.Logger
	now        Clock
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the engine's slog.Logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithClock overrides the engine's audit-entry clock. Used by tests.
func WithClock(now Clock) Option {
	return func(e *Engine) { e.now = now }
}

// New builds an Engine over store. The shell-tool pattern blocklist is
// loaded once from store at construction time, matching the builtin table's
// role as an integrity-hash-covered configuration set rather than a
// per-call lookup.
func New(store Store, opts ...Option) (*Engine, error) {
	forbidden, err := store.ShellForbiddenSubstrings()
	if err != nil {
		return nil, fmt.Errorf("policy: load shell blocklist: %w", err)
	}

	e := &Engine{
		store:      store,
		classifier: classify.New(store),
		matcher:    match.New(store),
		validator:  validate.New(forbidden),
		log:        slog.Default(),
		now:        time.Now,
	}
	e.resolver = resolve.New(store, e.log)
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Check resolves an approval decision for one tool invocation. It does not
// log the decision to the audit log — callers do that explicitly via
// LogDecision once the decision has been acted on (e.g. after a user
// prompt), per spec.md §4.6.
func (e *Engine) Check(toolID, command, workDir string, mode types.ModeID, trust types.TrustID) (types.ApprovalDecision, error) {
	classification, err := e.classifier.Classify(toolID, command, workDir)
	if err != nil {
		if errors.Is(err, policystore.ErrNotFound) {
			return types.ApprovalDecision{}, fmt.Errorf("%w: %s", ErrToolNotFound, err)
		}
		return types.ApprovalDecision{}, fmt.Errorf("%w: %s", ErrStorage, err)
	}

	available, err := e.store.ToolAvailableInMode(toolID, mode)
	if err != nil {
		return types.ApprovalDecision{}, fmt.Errorf("%w: %s: %v", ErrStorage, toolID, err)
	}
	if !available {
		return types.ApprovalDecision{}, fmt.Errorf("%w: %s not available in mode %s", ErrToolUnavailableInMode, toolID, mode)
	}

	// Invariant 5: ask/plan modes never require approval — availability
	// filtering is the only gate in those modes.
	if mode == types.ModeAsk || mode == types.ModePlan {
		return types.ApprovalDecision{
			NeedsApproval:  false,
			Classification: classification,
			Rationale:      fmt.Sprintf("mode %s does not require approval", mode),
		}, nil
	}

	key := resolve.RuleKey{Risk: classification.RiskLevel, Trust: trust, InWorkdir: classification.InWorkdir}
	decision, err := e.resolver.Resolve(key)
	if err != nil {
		return types.ApprovalDecision{}, err
	}

	result := types.ApprovalDecision{
		NeedsApproval:    decision.Behavior.NeedsApproval(),
		AllowSavePattern: decision.Behavior.AllowSavePattern(),
		Classification:   classification,
		Rationale:        decision.Rationale,
	}

	if !result.NeedsApproval {
		return result, nil
	}

	// Only consult saved patterns when the resolved behavior would allow
	// short-circuiting the prompt — PromptNoSave callers always see the
	// user, per spec.md §4.6 step 4.
	if result.AllowSavePattern {
		matched, err := e.matcher.Match(toolID, command)
		if err != nil {
			return types.ApprovalDecision{}, fmt.Errorf("policy: match patterns: %w", err)
		}
		if matched != nil {
			result.MatchedPattern = matched
			if matched.IsDenial {
				result.NeedsApproval = true
				result.AllowSavePattern = false
				result.Rationale = fmt.Sprintf("blocked by saved pattern %q", matched.Pattern)
			} else {
				result.NeedsApproval = false
				result.Rationale = fmt.Sprintf("auto-approved by saved pattern %q", matched.Pattern)
			}
		}
	}

	return result, nil
}

// SavePattern validates and persists a new approval/denial pattern. Callers
// invoke this only when the preceding Check's AllowSavePattern was true.
func (e *Engine) SavePattern(p types.ApprovalPattern) (string, error) {
	if err := e.validator.Validate(p.Tool, p.Pattern, p.MatchType); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPattern, err)
	}
	id, err := e.store.InsertApprovalPattern(p)
	if err != nil {
		return "", fmt.Errorf("policy: insert pattern: %w", err)
	}
	return id, nil
}

// ForgetPattern removes a previously saved pattern (e.g. on session end for
// session-scoped patterns).
func (e *Engine) ForgetPattern(id string) error {
	return e.store.DeleteApprovalPattern(id)
}

// LogDecision appends an audit entry. Per spec.md §4.1, a write failure is
// never silent — it's returned to the caller, who is expected to at least
// log it to stderr, but it never blocks the tool call itself from having
// already proceeded.
func (e *Engine) LogDecision(entry types.AuditEntry) error {
	if entry.Timestamp == 0 {
		entry.Timestamp = e.now().Unix()
	}
	if err := e.store.AppendAudit(entry); err != nil {
		e.log.Error("policy: failed to append audit entry", "error", err, "tool", entry.ToolID, "session", entry.SessionID)
		return fmt.Errorf("policy: append audit: %w", err)
	}
	return nil
}

// ToolAvailable reports whether toolID is offered under mode.
func (e *Engine) ToolAvailable(toolID string, mode types.ModeID) (bool, error) {
	return e.store.ToolAvailableInMode(toolID, mode)
}

// AvailableTools lists every tool registered for mode, per spec.md §4.6.
func (e *Engine) AvailableTools(mode types.ModeID) ([]types.ToolInfo, error) {
	return e.store.AvailableTools(mode)
}
