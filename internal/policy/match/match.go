// Package match tests a candidate command against stored approval patterns.
// Denial patterns are checked before approval patterns; among patterns of
// the same polarity, session-scoped patterns take precedence over
// workspace-scoped, which take precedence over user-scoped. Adapted from
// the precedence rules implicit in original_source/src/policy/types.rs's
// PatternSource and the teacher's internal/policy/matcher.go wildcard
// matching approach, generalized to the three MatchType variants the store
// persists.
package match

import (
	"regexp"
	"strings"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// Store is the subset of policystore.Store the matcher needs.
type Store interface {
	MatchingPatterns(tool string) ([]types.ApprovalPattern, error)
}

// Matcher finds the highest-precedence pattern matching a candidate command.
type Matcher struct {
	store Store
}

// New creates a Matcher backed by store.
func New(store Store) *Matcher {
	return &Matcher{store: store}
}

var sourceRank = map[types.PatternSource]int{
	types.SourceSession:   0,
	types.SourceWorkspace: 1,
	types.SourceUser:      2,
}

// Match returns the highest-precedence pattern matching command for tool,
// or nil if none match. Denials are always returned ahead of approvals
// regardless of source, since a denial should never be shadowed by a
// lower-precedence allow.
func (m *Matcher) Match(tool, command string) (*types.PatternMatch, error) {
	patterns, err := m.store.MatchingPatterns(tool)
	if err != nil {
		return nil, err
	}

	var bestDenial, bestApproval *types.ApprovalPattern
	for i := range patterns {
		p := &patterns[i]
		if !matches(command, p.Pattern, p.MatchType) {
			continue
		}
		if p.IsDenial {
			if bestDenial == nil || sourceRank[p.Source] < sourceRank[bestDenial.Source] {
				bestDenial = p
			}
		} else {
			if bestApproval == nil || sourceRank[p.Source] < sourceRank[bestApproval.Source] {
				bestApproval = p
			}
		}
	}

	chosen := bestDenial
	if chosen == nil {
		chosen = bestApproval
	}
	if chosen == nil {
		return nil, nil
	}

	return &types.PatternMatch{
		PatternID: chosen.ID,
		Pattern:   chosen.Pattern,
		MatchType: chosen.MatchType,
		IsDenial:  chosen.IsDenial,
	}, nil
}

func matches(command, pattern string, matchType types.MatchType) bool {
	switch matchType {
	case types.MatchExact:
		return command == pattern
	case types.MatchPrefix:
		return strings.HasPrefix(command, pattern)
	case types.MatchGlob:
		return matchGlob(command, pattern)
	default:
		return false
	}
}

// matchGlob implements shell-style globbing over the whole command string
// rather than path.Match's filesystem semantics, so a wildcard like "*" can
// cross "/" (e.g. "rm -rf /tmp/*" must match "rm -rf /tmp/x"). Adapted from
// the teacher's matchWildcard (internal/policy/matcher.go): glob metachars
// are translated to their regex equivalents and everything else is escaped
// with regexp.QuoteMeta, then anchored.
func matchGlob(command, pattern string) bool {
	re, err := regexp.Compile("^" + globToRegexPattern(pattern) + "$")
	if err != nil {
		return false
	}
	return re.MatchString(command)
}

// globToRegexPattern walks pattern rune by rune, passing "*", "?" and
// bracket expressions "[...]" through as their regex equivalents and
// QuoteMeta-escaping every other run of literal text.
func globToRegexPattern(pattern string) string {
	var sb strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			j := i + 1
			if j < len(runes) && (runes[j] == '!' || runes[j] == '^') {
				j++
			}
			for j < len(runes) && runes[j] != ']' {
				j++
			}
			if j < len(runes) {
				class := string(runes[i+1 : j])
				class = strings.ReplaceAll(class, `\`, `\\`)
				if strings.HasPrefix(class, "!") {
					class = "^" + class[1:]
				}
				sb.WriteString("[" + class + "]")
				i = j
			} else {
				sb.WriteString(regexp.QuoteMeta(string(r)))
			}
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return sb.String()
}
