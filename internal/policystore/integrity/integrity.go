// Package integrity hashes and verifies the policy store's builtin
// reference tables, and restores them from a known-good snapshot when the
// hash doesn't match. Ported from
// original_source/src/policy/integrity.rs.
package integrity

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
)

// builtinTables is the exact, ordered list of tables covered by the
// integrity hash.
var builtinTables = []string{
	"agent_modes",
	"trust_levels",
	"tool_types",
	"tool_categories",
	"tool_classifications",
	"approval_rules",
	"tool_mode_availability",
	"compound_command_rules",
	"classification_config",
	"pattern_validators",
}

// clearOrder is the reverse-dependency deletion order used by Restore.
var clearOrder = []string{
	"compound_command_rules",
	"tool_mode_availability",
	"approval_rules",
	"tool_classifications",
	"classification_config",
	"pattern_validators",
	"tool_types",
	"tool_categories",
	"trust_levels",
	"agent_modes",
}

var protectionTriggers = []string{
	"protect_availability_delete", "protect_availability_update",
	"protect_rules_delete", "protect_rules_update",
	"protect_classifications_delete", "protect_classifications_update",
	"protect_tools_delete", "protect_tools_update",
	"protect_trust_delete", "protect_trust_update",
	"protect_modes_delete", "protect_modes_update",
}

// Status is the outcome of Verify.
type Status int

const (
	Valid Status = iota
	Invalid
	NoHash
)

// VerifyResult carries the expected/actual hashes when Status is Invalid.
type VerifyResult struct {
	Status   Status
	Expected string
	Actual   string
}

// Verifier computes and checks the builtin-table hash against a *sql.DB.
type Verifier struct {
	db *sql.DB
}

// New creates a Verifier over db.
func New(db *sql.DB) *Verifier {
	return &Verifier{db: db}
}

// CalculateHash computes the current hash of the builtin tables.
func (v *Verifier) CalculateHash() (string, error) {
	h := sha256.New()
	for _, table := range builtinTables {
		pkCols, err := v.primaryKeyColumns(table)
		if err != nil {
			return "", fmt.Errorf("pk columns for %s: %w", table, err)
		}
		orderBy := "rowid"
		if len(pkCols) > 0 {
			orderBy = joinComma(pkCols)
		}

		rows, err := v.db.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY %s", table, orderBy))
		if err != nil {
			return "", fmt.Errorf("select %s: %w", table, err)
		}

		cols, err := rows.Columns()
		if err != nil {
			rows.Close()
			return "", err
		}

		for rows.Next() {
			raw := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				rows.Close()
				return "", err
			}

			var rowStr string
			for i, val := range raw {
				if i > 0 {
					rowStr += "|"
				}
				rowStr += serializeValue(val)
			}
			h.Write([]byte(table + ":" + rowStr + "\n"))
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return "", err
		}
		rows.Close()
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func serializeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []byte:
		// modernc.org/sqlite returns TEXT columns as string and BLOB
		// columns as []byte.
		return "BLOB:" + hex.EncodeToString(val)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (v *Verifier) primaryKeyColumns(table string) ([]string, error) {
	rows, err := v.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type col struct {
		name string
		pk   int
	}
	var cols []col
	for rows.Next() {
		var cid, pk int
		var name, ctype string
		var notNull int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		if pk > 0 {
			cols = append(cols, col{name: name, pk: pk})
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].pk < cols[j].pk })

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names, rows.Err()
}

func joinComma(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// StoreHash persists hash as the known-good builtin hash.
func (v *Verifier) StoreHash(hash string) error {
	_, err := v.db.Exec(
		`INSERT INTO integrity_metadata (key, value) VALUES ('builtin_hash', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		hash,
	)
	return err
}

// StoredHash returns the previously stored hash, or "" if none exists.
func (v *Verifier) StoredHash() (string, error) {
	var value string
	err := v.db.QueryRow(`SELECT value FROM integrity_metadata WHERE key = 'builtin_hash'`).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// Verify compares the current builtin-table hash against the stored one.
func (v *Verifier) Verify() (VerifyResult, error) {
	stored, err := v.StoredHash()
	if err != nil {
		return VerifyResult{}, err
	}
	if stored == "" {
		return VerifyResult{Status: NoHash}, nil
	}

	actual, err := v.CalculateHash()
	if err != nil {
		return VerifyResult{}, err
	}
	if actual != stored {
		return VerifyResult{Status: Invalid, Expected: stored, Actual: actual}, nil
	}
	return VerifyResult{Status: Valid}, nil
}

// RestoreFunc populates the builtin tables inside the active transaction,
// typically the same seeding routine used on first open.
type RestoreFunc func(tx *sql.Tx) error

// Restore clears every builtin table and repopulates it via seed, inside one
// transaction: drop protection triggers, disable foreign keys, delete
// builtin tables in reverse-dependency order, reseed, re-enable foreign
// keys, recreate triggers.
func (v *Verifier) Restore(seed RestoreFunc, recreateTriggers func(tx *sql.Tx) error) error {
	tx, err := v.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, trig := range protectionTriggers {
		if _, err := tx.Exec("DROP TRIGGER IF EXISTS " + trig); err != nil {
			return fmt.Errorf("drop trigger %s: %w", trig, err)
		}
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return err
	}

	for _, table := range clearOrder {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := seed(tx); err != nil {
		return fmt.Errorf("reseed: %w", err)
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}

	if err := recreateTriggers(tx); err != nil {
		return fmt.Errorf("recreate triggers: %w", err)
	}

	return tx.Commit()
}
