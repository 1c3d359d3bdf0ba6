package policystore

import (
	"database/sql"
	"fmt"

	"github.com/tarkdev/tarkcore/internal/policy/types"
)

// internalTools lists tool ids the engine ships with built-in classification
// data. Matches the internal-tool list in original_source's legacy approvals
// migration (shell, safe_shell, read_file, ... todo).
var internalTools = []struct {
	id        string
	category  string
	operation types.Operation
	risk      types.RiskLevel
	strategy  types.ClassificationStrategy
}{
	{"shell", "execution", types.OperationExecute, types.RiskDangerous, types.ClassificationDynamic},
	{"safe_shell", "execution", types.OperationExecute, types.RiskModerate, types.ClassificationDynamic},
	{"read_file", "filesystem", types.OperationRead, types.RiskSafe, types.ClassificationStatic},
	{"write_file", "filesystem", types.OperationWrite, types.RiskModerate, types.ClassificationStatic},
	{"delete_file", "filesystem", types.OperationDelete, types.RiskDangerous, types.ClassificationStatic},
	{"grep", "search", types.OperationRead, types.RiskSafe, types.ClassificationStatic},
	{"glob", "search", types.OperationRead, types.RiskSafe, types.ClassificationStatic},
	{"think", "reasoning", types.OperationRead, types.RiskSafe, types.ClassificationStatic},
	{"memory_store", "memory", types.OperationWrite, types.RiskModerate, types.ClassificationStatic},
	{"memory_query", "memory", types.OperationRead, types.RiskSafe, types.ClassificationStatic},
	{"memory_list", "memory", types.OperationRead, types.RiskSafe, types.ClassificationStatic},
	{"memory_delete", "memory", types.OperationDelete, types.RiskModerate, types.ClassificationStatic},
	{"todo", "planning", types.OperationWrite, types.RiskSafe, types.ClassificationStatic},
}

// shellForbidden is the shell-tool pattern blocklist, ported from
// original_source/src/policy/security.rs::PatternValidator.
var shellForbidden = []string{
	"rm -rf /",
	"rm -rf /*",
	":(){ :|:& };:",
	"dd if=/dev/zero of=/dev/",
	"mkfs.",
	"format ",
	"> /dev/sd",
}

// compoundSeparators are the shell separators the classifier splits compound
// commands on before taking the max risk across segments.
var compoundSeparators = []string{";", "&&", "||", "|"}

func (s *Store) seedIfEmpty() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM agent_modes").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.WithTx(func(tx *Tx) error {
		return seedBuiltinTables(tx.Tx)
	})
}

// seedBuiltinTables populates every builtin reference table inside tx. It's
// the single seeding routine shared by first-open seeding
// (seedIfEmpty) and integrity.Verifier.Restore's reseed step, so a restore
// regenerates byte-for-byte the same rows a fresh database gets.
func seedBuiltinTables(tx *sql.Tx) error {
	if err := seedModesAndTrust(tx); err != nil {
		return err
	}
	if err := seedTools(tx); err != nil {
		return err
	}
	if err := seedApprovalRules(tx); err != nil {
		return err
	}
	if err := seedCompoundRules(tx); err != nil {
		return err
	}
	if err := seedPatternValidators(tx); err != nil {
		return err
	}
	return nil
}

func seedModesAndTrust(tx *sql.Tx) error {
	modes := []types.ModeID{types.ModeAsk, types.ModePlan, types.ModeBuild}
	for _, m := range modes {
		if _, err := tx.Exec(`INSERT INTO agent_modes (mode_id, description) VALUES (?, '')`, string(m)); err != nil {
			return err
		}
	}
	trusts := []types.TrustID{types.TrustBalanced, types.TrustCareful, types.TrustManual}
	for _, t := range trusts {
		if _, err := tx.Exec(`INSERT INTO trust_levels (trust_id, description) VALUES (?, '')`, string(t)); err != nil {
			return err
		}
	}
	return nil
}

func seedTools(tx *sql.Tx) error {
	categories := map[string]bool{}
	for _, tool := range internalTools {
		if !categories[tool.category] {
			if _, err := tx.Exec(`INSERT OR IGNORE INTO tool_categories (category, description) VALUES (?, '')`, tool.category); err != nil {
				return err
			}
			categories[tool.category] = true
		}
		if _, err := tx.Exec(`INSERT INTO tool_types (tool_id, category) VALUES (?, ?)`, tool.id, tool.category); err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO tool_classifications (tool_id, risk_level, operation, classification_strategy) VALUES (?, ?, ?, ?)`,
			tool.id, string(tool.risk), string(tool.operation), string(tool.strategy),
		); err != nil {
			return err
		}
		for _, mode := range []types.ModeID{types.ModeAsk, types.ModePlan, types.ModeBuild} {
			// Destructive/execute tools aren't offered in Plan mode, which is
			// meant to produce a plan without side effects.
			if mode == types.ModePlan && (tool.operation == types.OperationExecute || tool.operation == types.OperationDelete || tool.operation == types.OperationWrite) {
				continue
			}
			if _, err := tx.Exec(`INSERT INTO tool_mode_availability (tool_id, mode_id) VALUES (?, ?)`, tool.id, string(mode)); err != nil {
				return err
			}
		}
	}
	return nil
}

// seedApprovalRules installs the risk x trust x location approval defaults
// table. Rows here are the same shape resolve.DefaultsConfig parses from
// TOML ("<risk>.<trust>.<in_workdir|out_workdir>" = "<behavior>"); this is
// just the built-in starting point, overridable per spec.md §4.4.
func seedApprovalRules(tx *sql.Tx) error {
	type rule struct {
		risk      types.RiskLevel
		trust     types.TrustID
		inWorkdir bool
		behavior  string
	}
	rules := []rule{
		// Safe operations are auto-approved except under Manual trust.
		{types.RiskSafe, types.TrustBalanced, true, "auto_approve"},
		{types.RiskSafe, types.TrustBalanced, false, "auto_approve"},
		{types.RiskSafe, types.TrustCareful, true, "auto_approve"},
		{types.RiskSafe, types.TrustCareful, false, "auto_approve"},
		{types.RiskSafe, types.TrustManual, true, "prompt"},
		{types.RiskSafe, types.TrustManual, false, "prompt"},

		// Moderate operations need a look under Balanced trust only when
		// outside the workdir.
		{types.RiskModerate, types.TrustBalanced, true, "auto_approve"},
		{types.RiskModerate, types.TrustBalanced, false, "prompt"},
		{types.RiskModerate, types.TrustCareful, true, "prompt"},
		{types.RiskModerate, types.TrustCareful, false, "prompt"},
		{types.RiskModerate, types.TrustManual, true, "prompt_no_save"},
		{types.RiskModerate, types.TrustManual, false, "prompt_no_save"},

		// Dangerous operations always prompt; only Balanced-in-workdir lets
		// the user save a pattern for next time.
		{types.RiskDangerous, types.TrustBalanced, true, "prompt"},
		{types.RiskDangerous, types.TrustBalanced, false, "prompt_no_save"},
		{types.RiskDangerous, types.TrustCareful, true, "prompt_no_save"},
		{types.RiskDangerous, types.TrustCareful, false, "prompt_no_save"},
		{types.RiskDangerous, types.TrustManual, true, "prompt_no_save"},
		{types.RiskDangerous, types.TrustManual, false, "prompt_no_save"},
	}
	for _, r := range rules {
		if _, err := tx.Exec(
			`INSERT INTO approval_rules (risk_level, trust_id, in_workdir, behavior) VALUES (?, ?, ?, ?)`,
			string(r.risk), string(r.trust), boolToInt(r.inWorkdir), r.behavior,
		); err != nil {
			return fmt.Errorf("seed approval rule %s/%s/%v: %w", r.risk, r.trust, r.inWorkdir, err)
		}
	}
	return nil
}

func seedCompoundRules(tx *sql.Tx) error {
	for _, sep := range compoundSeparators {
		if _, err := tx.Exec(`INSERT INTO compound_command_rules (separator, description) VALUES (?, '')`, sep); err != nil {
			return err
		}
	}
	return nil
}

func seedPatternValidators(tx *sql.Tx) error {
	for _, forbidden := range shellForbidden {
		if _, err := tx.Exec(`INSERT INTO pattern_validators (tool_id, forbidden_substring) VALUES ('shell', ?)`, forbidden); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
