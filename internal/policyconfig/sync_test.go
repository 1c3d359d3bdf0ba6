package policyconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarkdev/tarkcore/internal/policystore"
)

const userToml = `
version = 1

[[tools]]
server = "github"
tool = "create_issue"
risk = "moderate"
needs_approval = true
allow_save_pattern = true
description = "user default"
`

const workspaceToml = `
version = 1

[[tools]]
server = "github"
tool = "create_issue"
risk = "dangerous"
needs_approval = true
allow_save_pattern = false
description = "workspace override"

[[patterns]]
server = "github"
tool = "create_issue"
pattern = "repo:evil/*"
match_type = "glob"
action = "deny"
description = "block issue creation on the evil org"
`

func TestMerge_WorkspaceOverridesUser(t *testing.T) {
	user, err := Parse([]byte(userToml))
	require.NoError(t, err)
	workspace, err := Parse([]byte(workspaceToml))
	require.NoError(t, err)

	merged := Merge(user, workspace)
	require.Len(t, merged.Tools, 1)
	assert.Equal(t, "dangerous", merged.Tools[0].Risk)
	assert.Equal(t, "workspace override", merged.Tools[0].Description)
	assert.False(t, merged.Tools[0].AllowSavePattern)
	require.Len(t, merged.Patterns, 1)
}

func TestSyncFromFiles_E10_DenyPatternBlocksMatchingCall(t *testing.T) {
	store, err := policystore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := t.TempDir()
	userPath := filepath.Join(dir, "user.toml")
	workspacePath := filepath.Join(dir, "workspace.toml")
	require.NoError(t, os.WriteFile(userPath, []byte(userToml), 0o644))
	require.NoError(t, os.WriteFile(workspacePath, []byte(workspaceToml), 0o644))

	require.NoError(t, SyncFromFiles(store, userPath, workspacePath))

	policy, err := store.McpPolicy("github", "create_issue")
	require.NoError(t, err)
	assert.Equal(t, "dangerous", string(policy.RiskLevel))
	assert.False(t, policy.AllowSavePattern)

	denied, err := store.McpDenialExists("github", "create_issue")
	require.NoError(t, err)
	assert.True(t, denied)
}

func TestSyncFromFiles_MissingFilesAreNotAnError(t *testing.T) {
	store, err := policystore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, SyncFromFiles(store, "", ""))
	dir := t.TempDir()
	require.NoError(t, SyncFromFiles(store, filepath.Join(dir, "missing.toml"), ""))
}
