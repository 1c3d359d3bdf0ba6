// Package policystore implements the SQLite-backed policy database: schema,
// seeding, and CRUD access for modes, trust levels, tool classifications,
// approval rules, approval patterns, MCP tool policies, and the audit log.
package policystore

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/tarkdev/tarkcore/internal/config"
	"github.com/tarkdev/tarkcore/internal/policystore/integrity"
	"github.com/tarkdev/tarkcore/internal/policystore/migrations"

	_ "modernc.org/sqlite"
)

// Store wraps the policy database connection and exposes the operations the
// policy engine needs.
type Store struct {
	db       *sql.DB
	path     string
	verifier *integrity.Verifier
}

// Open opens (creating if needed) the policy database at path, runs
// migrations, and seeds the builtin reference tables if they're empty.
func Open(path string) (*Store, error) {
	expandedPath, err := config.ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	if expandedPath != ":memory:" {
		dir := filepath.Dir(expandedPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory: %w", err)
		}
	}

	dsn := buildDSN(expandedPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one concurrent writer; keep the pool small so reads via
	// WAL don't queue behind a writer unnecessarily while still avoiding
	// SQLITE_BUSY under concurrent tool execution.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	s := &Store{db: db, path: expandedPath, verifier: integrity.New(db)}
	if err := s.seedIfEmpty(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed builtin tables: %w", err)
	}

	if err := s.verifyOrRestore(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify builtin integrity: %w", err)
	}

	return s, nil
}

// verifyOrRestore checks the builtin-table hash against the one stored at
// the last open. A missing hash (first run) seeds it from the
// just-created tables. A mismatch triggers Verifier.Restore once — per
// spec.md §7, a second violation after restoring is fatal, so this never
// loops.
func (s *Store) verifyOrRestore() error {
	result, err := s.verifier.Verify()
	if err != nil {
		return err
	}

	switch result.Status {
	case integrity.Valid:
		return nil
	case integrity.NoHash:
		hash, err := s.verifier.CalculateHash()
		if err != nil {
			return err
		}
		return s.verifier.StoreHash(hash)
	case integrity.Invalid:
		triggersSQL, err := migrations.TriggersSQL()
		if err != nil {
			return err
		}
		if err := s.verifier.Restore(
			func(tx *sql.Tx) error { return seedBuiltinTables(tx) },
			func(tx *sql.Tx) error {
				_, err := tx.Exec(triggersSQL)
				return err
			},
		); err != nil {
			return fmt.Errorf("restore builtin tables: %w", err)
		}

		hash, err := s.verifier.CalculateHash()
		if err != nil {
			return err
		}
		if err := s.verifier.StoreHash(hash); err != nil {
			return err
		}

		reverified, err := s.verifier.Verify()
		if err != nil {
			return err
		}
		if reverified.Status != integrity.Valid {
			return fmt.Errorf("policystore: integrity still invalid after restore")
		}
		return nil
	default:
		return fmt.Errorf("policystore: unknown integrity status %v", result.Status)
	}
}

// VerifyIntegrity re-runs the builtin-table integrity check without
// restoring, for callers (e.g. a doctor/diagnostics command) that want to
// report tampering rather than silently fix it.
func (s *Store) VerifyIntegrity() (integrity.VerifyResult, error) {
	return s.verifier.Verify()
}

// buildDSN constructs a modernc.org/sqlite DSN with _pragma parameters so
// every pooled connection is configured identically.
func buildDSN(path string) string {
	v := url.Values{}
	v.Set("_pragma", "journal_mode=WAL")
	v.Add("_pragma", "foreign_keys=ON")
	v.Add("_pragma", "busy_timeout=30000")
	v.Add("_pragma", "synchronous=NORMAL")
	v.Add("_txlock", "immediate")
	return path + "?" + v.Encode()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB returns the underlying *sql.DB for packages (integrity.Verifier) that
// need direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Tx wraps a database transaction.
type Tx struct {
	*sql.Tx
}

// WithTx runs fn inside a transaction, committing on success and rolling
// back otherwise.
func (s *Store) WithTx(fn func(*Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	wrapped := &Tx{Tx: tx}
	if err := fn(wrapped); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
