// Package resolve turns a (risk, trust, in_workdir) key into an approval
// behavior by reading the matching approval_rules row from the store, and
// falls back to Prompt when no row exists. There is no separate
// per-process override layer.
// Ported from original_source/src/policy/resolver.rs.
package resolve

import (
	"fmt"
	"log/slog"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// Behavior is the three-value approval behavior enum.
type Behavior string

const (
	AutoApprove  Behavior = "auto_approve"
	Prompt       Behavior = "prompt"
	PromptNoSave Behavior = "prompt_no_save"
)

// ParseBehavior parses a behavior from its stored string form.
func ParseBehavior(s string) (Behavior, error) {
	switch Behavior(s) {
	case AutoApprove, Prompt, PromptNoSave:
		return Behavior(s), nil
	}
	return "", fmt.Errorf("resolve: invalid approval behavior %q", s)
}

// NeedsApproval reports whether this behavior requires a user decision.
func (b Behavior) NeedsApproval() bool {
	return b == Prompt || b == PromptNoSave
}

// AllowSavePattern reports whether the user may save a pattern so future
// matching commands skip the prompt. Only Prompt allows this —
// PromptNoSave exists precisely to prevent saving.
func (b Behavior) AllowSavePattern() bool {
	return b == Prompt
}

// RuleKey identifies one approval_rules row.
type RuleKey struct {
	Risk      types.RiskLevel
	Trust     types.TrustID
	InWorkdir bool
}

// Store is the subset of policystore.Store the resolver needs.
type Store interface {
	ApprovalBehavior(risk types.RiskLevel, trust types.TrustID, inWorkdir bool) (string, error)
}

// Resolver resolves approval behavior for a classification + trust level.
type Resolver struct {
	store Store
	log   *slog.Logger
}

// New creates a Resolver backed by store.
func New(store Store, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{store: store, log: log}
}

// Decision is the resolver's output: the behavior, a human-readable
// rationale, and WasOverride, which is true when an approval_rules row was
// found and false when the Prompt fallback was used.
type Decision struct {
	Behavior     Behavior
	Rationale    string
	WasOverride  bool
}

// Resolve looks up the behavior for key. A missing row logs a warning and
// falls back to Prompt, per spec.md invariant 2 ("fail closed").
func (r *Resolver) Resolve(key RuleKey) (Decision, error) {
	raw, err := r.store.ApprovalBehavior(key.Risk, key.Trust, key.InWorkdir)
	if err != nil {
		r.log.Warn("approval rule missing, falling back to prompt",
			"risk", key.Risk, "trust", key.Trust, "in_workdir", key.InWorkdir)
		return Decision{
			Behavior:  Prompt,
			Rationale: fmt.Sprintf("no approval rule for %s/%s/in_workdir=%v; defaulting to prompt", key.Risk, key.Trust, key.InWorkdir),
		}, nil
	}

	behavior, err := ParseBehavior(raw)
	if err != nil {
		return Decision{}, err
	}

	return Decision{
		Behavior:    behavior,
		Rationale:   fmt.Sprintf("%s/%s/in_workdir=%v -> %s", key.Risk, key.Trust, key.InWorkdir, behavior),
		WasOverride: true,
	}, nil
}
