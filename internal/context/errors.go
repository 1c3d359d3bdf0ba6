// Package context tracks LLM context window usage across its token sources
// and plans compaction when the window fills up. Tracker is the single
// source of truth for current usage; Manager is a pure compaction planner
// that reports what to remove without mutating any message store itself.
package context

import (
	"errors"
	"fmt"
)

// Context errors.
var (
	// ErrCompactionFailed means compact() had nothing to remove, either
	// because there were no messages or because the configured strategy
	// would keep at least as many messages as exist.
	ErrCompactionFailed = errors.New("context: compaction failed")

	// ErrInvalidTokenCount means a caller passed a token count that can't
	// be reconciled against the current breakdown (e.g. a negative delta
	// that would underflow).
	ErrInvalidTokenCount = errors.New("context: invalid token count")

	// ErrTokenizerError means a Tokenizer implementation failed to count
	// tokens for the given input (e.g. a provider-backed tokenizer's RPC
	// failed). ApproximateTokenizer never returns this itself; it exists
	// for tokenizer implementations that call out to something fallible.
	ErrTokenizerError = errors.New("context: tokenizer error")
)

// WindowExceededError means the next turn would exceed the context window
// even after the manager's own compaction attempt; per spec.md §7 the
// caller must drop messages manually at that point.
type WindowExceededError struct {
	Current int
	Max     int
}

func (e *WindowExceededError) Error() string {
	return fmt.Sprintf("context: window exceeded: %d current tokens over %d max", e.Current, e.Max)
}

// Is reports true for errors.Is(err, ErrWindowExceeded) so callers can
// check the category without a type assertion.
func (e *WindowExceededError) Is(target error) bool {
	return target == ErrWindowExceeded
}

// ErrWindowExceeded is the sentinel matched by errors.Is against a
// *WindowExceededError.
var ErrWindowExceeded = errors.New("context: window exceeded")
