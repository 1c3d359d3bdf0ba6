package policystore

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// ErrNotFound is returned by lookups that find no matching row.
var ErrNotFound = errors.New("policystore: not found")

// ToolClassification returns the static classification row for toolID, or
// ErrNotFound if the tool isn't registered. Dynamic-strategy tools (shell,
// safe_shell) still have a baseline row here; the classifier overrides its
// risk per-invocation.
func (s *Store) ToolClassification(toolID string) (types.CommandClassification, types.ClassificationStrategy, error) {
	var risk, operation, strategy string
	err := s.db.QueryRow(
		`SELECT risk_level, operation, classification_strategy FROM tool_classifications WHERE tool_id = ?`,
		toolID,
	).Scan(&risk, &operation, &strategy)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CommandClassification{}, "", ErrNotFound
	}
	if err != nil {
		return types.CommandClassification{}, "", err
	}
	return types.CommandClassification{
		ClassificationID: toolID,
		Operation:        types.Operation(operation),
		RiskLevel:        types.RiskLevel(risk),
	}, types.ClassificationStrategy(strategy), nil
}

// ToolAvailableInMode reports whether toolID may run under mode.
func (s *Store) ToolAvailableInMode(toolID string, mode types.ModeID) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tool_mode_availability WHERE tool_id = ? AND mode_id = ?`,
		toolID, string(mode),
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AvailableTools returns every tool registered for mode, joining tool_types
// with tool_mode_availability per spec.md §4.6's available_tools.
func (s *Store) AvailableTools(mode types.ModeID) ([]types.ToolInfo, error) {
	rows, err := s.db.Query(
		`SELECT tt.tool_id, tt.category
		 FROM tool_types tt
		 JOIN tool_mode_availability tma ON tma.tool_id = tt.tool_id
		 WHERE tma.mode_id = ?
		 ORDER BY tt.tool_id`,
		string(mode),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []types.ToolInfo
	for rows.Next() {
		var t types.ToolInfo
		if err := rows.Scan(&t.ToolID, &t.Category); err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

// ApprovalBehavior returns the raw behavior string stored for the given
// (risk, trust, in_workdir) key, or ErrNotFound if no row matches — callers
// fall back to resolve.Prompt with a warning, per spec.md invariant 2.
func (s *Store) ApprovalBehavior(risk types.RiskLevel, trust types.TrustID, inWorkdir bool) (string, error) {
	var behavior string
	err := s.db.QueryRow(
		`SELECT behavior FROM approval_rules WHERE risk_level = ? AND trust_id = ? AND in_workdir = ?`,
		string(risk), string(trust), boolToInt(inWorkdir),
	).Scan(&behavior)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return behavior, err
}

// UpsertApprovalBehavior overrides the approval_rules row for a key.
func (s *Store) UpsertApprovalBehavior(risk types.RiskLevel, trust types.TrustID, inWorkdir bool, behavior string) error {
	_, err := s.db.Exec(
		`INSERT INTO approval_rules (risk_level, trust_id, in_workdir, behavior) VALUES (?, ?, ?, ?)
		 ON CONFLICT(risk_level, trust_id, in_workdir) DO UPDATE SET behavior = excluded.behavior`,
		string(risk), string(trust), boolToInt(inWorkdir), behavior,
	)
	return err
}

// CompoundSeparators returns the configured shell compound-command
// separators (";", "&&", "||", "|" by default).
func (s *Store) CompoundSeparators() ([]string, error) {
	rows, err := s.db.Query(`SELECT separator FROM compound_command_rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seps []string
	for rows.Next() {
		var sep string
		if err := rows.Scan(&sep); err != nil {
			return nil, err
		}
		seps = append(seps, sep)
	}
	return seps, rows.Err()
}

// ShellForbiddenSubstrings returns the shell-tool pattern blocklist.
func (s *Store) ShellForbiddenSubstrings() ([]string, error) {
	rows, err := s.db.Query(`SELECT forbidden_substring FROM pattern_validators WHERE tool_id = 'shell'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var substr string
		if err := rows.Scan(&substr); err != nil {
			return nil, err
		}
		out = append(out, substr)
	}
	return out, rows.Err()
}

// MatchingPatterns returns every stored approval pattern for tool, denials
// first (callers should check denials before approvals).
func (s *Store) MatchingPatterns(tool string) ([]types.ApprovalPattern, error) {
	rows, err := s.db.Query(
		`SELECT id, tool, pattern, match_type, is_denial, source, description
		 FROM approval_patterns WHERE tool = ? ORDER BY is_denial DESC, created_at ASC`,
		tool,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []types.ApprovalPattern
	for rows.Next() {
		var p types.ApprovalPattern
		var isDenial int
		var matchType, source string
		if err := rows.Scan(&p.ID, &p.Tool, &p.Pattern, &matchType, &isDenial, &source, &p.Description); err != nil {
			return nil, err
		}
		p.MatchType = types.MatchType(matchType)
		p.IsDenial = isDenial != 0
		p.Source = types.PatternSource(source)
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// InsertApprovalPattern stores a new approval pattern and returns its id.
func (s *Store) InsertApprovalPattern(p types.ApprovalPattern) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO approval_patterns (id, tool, pattern, match_type, is_denial, source, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Tool, p.Pattern, string(p.MatchType), boolToInt(p.IsDenial), string(p.Source), p.Description, time.Now().Unix(),
	)
	return p.ID, err
}

// DeleteApprovalPattern removes a pattern by id.
func (s *Store) DeleteApprovalPattern(id string) error {
	_, err := s.db.Exec(`DELETE FROM approval_patterns WHERE id = ?`, id)
	return err
}

// McpPolicy returns the stored policy for (serverID, toolName), or
// types.DefaultMcpPolicy() if none is stored.
func (s *Store) McpPolicy(serverID, toolName string) (types.McpPolicy, error) {
	var risk, description string
	var needsApproval, allowSave int
	err := s.db.QueryRow(
		`SELECT risk_level, needs_approval, allow_save_pattern, description
		 FROM mcp_tool_policies WHERE server_id = ? AND tool_name = ?`,
		serverID, toolName,
	).Scan(&risk, &needsApproval, &allowSave, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return types.DefaultMcpPolicy(), nil
	}
	if err != nil {
		return types.McpPolicy{}, err
	}
	return types.McpPolicy{
		RiskLevel:        types.RiskLevel(risk),
		NeedsApproval:    needsApproval != 0,
		AllowSavePattern: allowSave != 0,
		Description:      description,
	}, nil
}

// UpsertMcpPolicy stores or replaces the policy for (serverID, toolName).
func (s *Store) UpsertMcpPolicy(serverID, toolName string, policy types.McpPolicy) error {
	_, err := s.db.Exec(
		`INSERT INTO mcp_tool_policies (server_id, tool_name, risk_level, needs_approval, allow_save_pattern, description)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(server_id, tool_name) DO UPDATE SET
		   risk_level = excluded.risk_level,
		   needs_approval = excluded.needs_approval,
		   allow_save_pattern = excluded.allow_save_pattern,
		   description = excluded.description`,
		serverID, toolName, string(policy.RiskLevel), boolToInt(policy.NeedsApproval), boolToInt(policy.AllowSavePattern), policy.Description,
	)
	return err
}

// McpDenialExists reports whether a denial pattern exists for (serverID,
// toolName). Per original_source/src/policy/mcp.rs's check_mcp_patterns,
// the original itself resolves by key alone — it accepts a params value
// but never matches the stored pattern text against it — so this mirrors
// that exactly rather than inventing argument matching the original
// doesn't do. The pattern text and match type are still persisted in
// full via InsertMcpPattern/ListMcpPatterns.
func (s *Store) McpDenialExists(serverID, toolName string) (bool, error) {
	return s.mcpPatternExists(serverID, toolName, true)
}

// McpApprovalExists reports whether an approval pattern exists for
// (serverID, toolName).
func (s *Store) McpApprovalExists(serverID, toolName string) (bool, error) {
	return s.mcpPatternExists(serverID, toolName, false)
}

func (s *Store) mcpPatternExists(serverID, toolName string, denial bool) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM mcp_approval_patterns WHERE server_id = ? AND tool_name = ? AND is_denial = ?`,
		serverID, toolName, boolToInt(denial),
	).Scan(&n)
	return n > 0, err
}

// InsertMcpPattern records an approval or denial pattern for (serverID,
// toolName), storing the full pattern text and match type even though
// mcpPatternExists currently resolves by key alone — see McpDenialExists's
// doc comment for why.
func (s *Store) InsertMcpPattern(p types.McpApprovalPattern) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(
		`INSERT INTO mcp_approval_patterns (id, server_id, tool_name, pattern, match_type, is_denial, source, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ServerID, p.ToolName, p.Pattern, string(p.MatchType), boolToInt(p.IsDenial), string(p.Source), p.Description, time.Now().Unix(),
	)
	return p.ID, err
}

// ListMcpPatterns returns every stored MCP approval/denial pattern for
// (serverID, toolName), denials first.
func (s *Store) ListMcpPatterns(serverID, toolName string) ([]types.McpApprovalPattern, error) {
	rows, err := s.db.Query(
		`SELECT id, server_id, tool_name, pattern, match_type, is_denial, source, description
		 FROM mcp_approval_patterns WHERE server_id = ? AND tool_name = ? ORDER BY is_denial DESC, created_at ASC`,
		serverID, toolName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []types.McpApprovalPattern
	for rows.Next() {
		var p types.McpApprovalPattern
		var isDenial int
		var matchType, source string
		if err := rows.Scan(&p.ID, &p.ServerID, &p.ToolName, &p.Pattern, &matchType, &isDenial, &source, &p.Description); err != nil {
			return nil, err
		}
		p.MatchType = types.MatchType(matchType)
		p.IsDenial = isDenial != 0
		p.Source = types.PatternSource(source)
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// AppendAudit appends one audit log entry.
func (s *Store) AppendAudit(entry types.AuditEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO audit_log (timestamp, tool_id, command, classification_id, mode_id, trust_id, decision, matched_pattern_id, session_id, working_directory)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp, entry.ToolID, entry.Command, nullIfEmpty(entry.ClassificationID),
		string(entry.ModeID), nullIfEmptyTrust(entry.TrustID), string(entry.Decision),
		nullIfEmpty(entry.MatchedPatternID), entry.SessionID, entry.WorkingDirectory,
	)
	return err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfEmptyTrust(t types.TrustID) any {
	if t == "" {
		return nil
	}
	return string(t)
}
