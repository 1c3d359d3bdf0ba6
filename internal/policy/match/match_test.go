package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

type fakeStore struct {
	patterns []types.ApprovalPattern
}

func (f *fakeStore) MatchingPatterns(tool string) ([]types.ApprovalPattern, error) {
	return f.patterns, nil
}

func TestMatch_ExactMatch(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "1", Pattern: "git status", MatchType: types.MatchExact, Source: types.SourceUser},
	}})

	result, err := m.Match("shell", "git status")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "1", result.PatternID)
}

func TestMatch_PrefixMatch(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "1", Pattern: "git ", MatchType: types.MatchPrefix, Source: types.SourceUser},
	}})

	result, err := m.Match("shell", "git log --oneline")
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestMatch_GlobMatch(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "1", Pattern: "npm run *", MatchType: types.MatchGlob, Source: types.SourceUser},
	}})

	result, err := m.Match("shell", "npm run build")
	require.NoError(t, err)
	require.NotNil(t, result)
}

func TestMatch_GlobMatchCrossesPathSeparator(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "1", Pattern: "rm -rf /tmp/*", MatchType: types.MatchGlob, Source: types.SourceUser},
	}})

	result, err := m.Match("shell", "rm -rf /tmp/x")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "1", result.PatternID)
}

func TestMatch_NoMatchReturnsNil(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "1", Pattern: "git status", MatchType: types.MatchExact, Source: types.SourceUser},
	}})

	result, err := m.Match("shell", "rm file.txt")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMatch_DenialBeatsApprovalRegardlessOfSource(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "approve", Pattern: "git push", MatchType: types.MatchExact, Source: types.SourceSession, IsDenial: false},
		{ID: "deny", Pattern: "git push", MatchType: types.MatchExact, Source: types.SourceUser, IsDenial: true},
	}})

	result, err := m.Match("shell", "git push")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "deny", result.PatternID)
	assert.True(t, result.IsDenial)
}

func TestMatch_SessionBeatsWorkspaceBeatsUser(t *testing.T) {
	m := New(&fakeStore{patterns: []types.ApprovalPattern{
		{ID: "user", Pattern: "git push", MatchType: types.MatchExact, Source: types.SourceUser},
		{ID: "session", Pattern: "git push", MatchType: types.MatchExact, Source: types.SourceSession},
		{ID: "workspace", Pattern: "git push", MatchType: types.MatchExact, Source: types.SourceWorkspace},
	}})

	result, err := m.Match("shell", "git push")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "session", result.PatternID)
}
