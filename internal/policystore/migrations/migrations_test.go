package migrations

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMem(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRun_CreatesTables(t *testing.T) {
	db := openMem(t)
	require.NoError(t, Run(db))

	for _, table := range []string{
		"agent_modes", "trust_levels", "tool_types", "tool_categories",
		"tool_classifications", "approval_rules", "tool_mode_availability",
		"compound_command_rules", "approval_patterns", "mcp_tool_policies",
		"mcp_approval_patterns", "audit_log", "integrity_metadata",
	} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	db := openMem(t)
	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestProtectionTriggersBlockDelete(t *testing.T) {
	db := openMem(t)
	require.NoError(t, Run(db))

	_, err := db.Exec("INSERT INTO agent_modes (mode_id) VALUES ('ask')")
	require.NoError(t, err)

	_, err = db.Exec("DELETE FROM agent_modes WHERE mode_id = 'ask'")
	assert.Error(t, err)
}

func TestTriggersSQL_IsNonEmptyAndRunnable(t *testing.T) {
	triggersSQL, err := TriggersSQL()
	require.NoError(t, err)
	assert.Contains(t, triggersSQL, "protect_modes_delete")

	db := openMem(t)
	require.NoError(t, Run(db))
	_, err = db.Exec(triggersSQL)
	require.NoError(t, err)
}
