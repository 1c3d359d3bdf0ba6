// Package policy composes the classifier, rule resolver, pattern matcher
// and pattern validator into a single approval decision per tool call;
// Engine.LogDecision appends a decision to the audit log when a caller
// passes one in.
package policy

import "errors"

// Sentinel errors identify why Engine.Check or Engine.SavePattern failed, so
// callers can branch with errors.Is instead of string matching.
var (
	// ErrToolNotFound means the tool has no classification row at all.
	ErrToolNotFound = errors.New("policy: tool not found")
	// ErrToolUnavailableInMode means the tool exists but isn't offered
	// under the session's current mode.
	ErrToolUnavailableInMode = errors.New("policy: tool unavailable in current mode")
	// ErrInvalidPattern means a pattern failed validate.Validator checks.
	ErrInvalidPattern = errors.New("policy: invalid pattern")
	// ErrPatternSaveNotAllowed means the resolved behavior doesn't permit
	// saving a pattern (PromptNoSave, or an auto-approved call).
	ErrPatternSaveNotAllowed = errors.New("policy: pattern save not allowed for this decision")
	// ErrStorage means a Store call failed for reasons other than "no
	// matching row" — a query error, a closed connection, a disk failure.
	// Kept distinct from ErrToolNotFound so callers can tell "this tool
	// doesn't exist" apart from "the database is unavailable right now".
	ErrStorage = errors.New("policy: storage error")
)
