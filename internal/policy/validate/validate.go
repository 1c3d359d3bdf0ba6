// Package validate checks that a user-submitted approval pattern is
// well-formed and, for the shell tool, not an attempt to save a pattern that
// would match a catastrophic command. Ported from
// original_source/src/policy/security.rs::PatternValidator.
package validate

import (
	"fmt"
	"strings"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// MaxPatternLength is the maximum byte length of a stored pattern.
const MaxPatternLength = 1000

// Validator checks approval patterns before they're persisted.
type Validator struct {
	// ShellForbidden lists substrings that can never appear in a pattern
	// saved for the shell tool. Loaded from the pattern_validators table.
	ShellForbidden []string
}

// New creates a Validator with the given shell-tool blocklist.
func New(shellForbidden []string) *Validator {
	return &Validator{ShellForbidden: shellForbidden}
}

// Validate checks pattern for toolID against length, match-type, and (for
// the shell tool) the forbidden-substring blocklist.
func (v *Validator) Validate(toolID, pattern string, matchType types.MatchType) error {
	if len(pattern) == 0 {
		return fmt.Errorf("policy: pattern must not be empty")
	}
	if len(pattern) > MaxPatternLength {
		return fmt.Errorf("policy: pattern exceeds %d bytes", MaxPatternLength)
	}
	if !matchType.Valid() {
		return fmt.Errorf("policy: invalid match type %q", matchType)
	}

	if toolID == "shell" {
		lower := strings.ToLower(pattern)
		for _, forbidden := range v.ShellForbidden {
			if strings.Contains(lower, strings.ToLower(forbidden)) {
				return fmt.Errorf("policy: pattern contains a blocked shell sequence")
			}
		}
	}

	return nil
}
