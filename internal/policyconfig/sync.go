package policyconfig

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tarkdev/tarkcore/internal/policy/types"
	"github.com/tarkdev/tarkcore/internal/policystore"
)

// Sync writes cfg's tool policies and patterns into store inside a single
// transaction, per spec.md §4.1: "MCP tool policies: synced from TOML
// config files on startup ... into the DB inside a single transaction."
// Callers pass the already-merged config (see Merge); Sync itself performs
// no merging.
func Sync(store *policystore.Store, cfg *Config) error {
	if cfg == nil {
		return nil
	}

	return store.WithTx(func(tx *policystore.Tx) error {
		for _, t := range cfg.Tools {
			risk := types.RiskLevel(t.Risk)
			if !risk.Valid() {
				return fmt.Errorf("policyconfig: tool %s/%s: invalid risk %q", t.Server, t.Tool, t.Risk)
			}
			if _, err := tx.Exec(
				`INSERT INTO mcp_tool_policies (server_id, tool_name, risk_level, needs_approval, allow_save_pattern, description)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT(server_id, tool_name) DO UPDATE SET
				   risk_level = excluded.risk_level,
				   needs_approval = excluded.needs_approval,
				   allow_save_pattern = excluded.allow_save_pattern,
				   description = excluded.description`,
				t.Server, t.Tool, string(risk), boolToInt(t.NeedsApproval), boolToInt(t.AllowSavePattern), t.Description,
			); err != nil {
				return fmt.Errorf("policyconfig: upsert tool policy %s/%s: %w", t.Server, t.Tool, err)
			}
		}

		for _, p := range cfg.Patterns {
			matchType := types.MatchType(p.MatchType)
			if !matchType.Valid() {
				return fmt.Errorf("policyconfig: pattern %s/%s: invalid match_type %q", p.Server, p.Tool, p.MatchType)
			}
			action := MatchAction(p.Action)
			if !action.Valid() {
				return fmt.Errorf("policyconfig: pattern %s/%s: invalid action %q", p.Server, p.Tool, p.Action)
			}

			var n int
			if err := tx.QueryRow(
				`SELECT COUNT(*) FROM mcp_approval_patterns WHERE server_id = ? AND tool_name = ? AND is_denial = ?`,
				p.Server, p.Tool, boolToInt(action == ActionDeny),
			).Scan(&n); err != nil {
				return fmt.Errorf("policyconfig: check pattern %s/%s: %w", p.Server, p.Tool, err)
			}
			if n > 0 {
				continue
			}

			if _, err := tx.Exec(
				`INSERT INTO mcp_approval_patterns (id, server_id, tool_name, pattern, match_type, is_denial, source, description, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), p.Server, p.Tool, p.Pattern, string(matchType), boolToInt(action == ActionDeny),
				string(types.SourceWorkspace), p.Description, time.Now().Unix(),
			); err != nil {
				return fmt.Errorf("policyconfig: insert pattern %s/%s: %w", p.Server, p.Tool, err)
			}
		}

		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SyncFromFiles loads the user and workspace mcp.toml files (either path
// may be empty or absent), merges them with the workspace taking priority,
// and syncs the result into store.
func SyncFromFiles(store *policystore.Store, userPath, workspacePath string) error {
	user, err := Load(userPath)
	if err != nil {
		return err
	}
	workspace, err := Load(workspacePath)
	if err != nil {
		return err
	}
	return Sync(store, Merge(user, workspace))
}
