package userdict

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the Store this repo actually ships: one table for regular
// entries, one for the small meta namespace, both keyed on the caller's key
// string so lookups stay a plain indexed equality/prefix scan.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) a WAL-mode sqlite db at path and
// runs its schema migration.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("userdict: open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("userdict: ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("userdict: enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("userdict: schema migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Get(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *SQLiteStore) Put(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO entries (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("userdict: put %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM entries WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("userdict: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Iterate(fn func(key, value string) bool) error {
	rows, err := s.db.Query(`SELECT key, value FROM entries ORDER BY key`)
	if err != nil {
		return fmt.Errorf("userdict: iterate: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("userdict: iterate scan: %w", err)
		}
		if !fn(key, value) {
			break
		}
	}
	return rows.Err()
}

// PrefixIterate walks (key, value) pairs whose key starts with prefix, in
// ascending key order, past resumeKey when non-empty. This is the primitive
// LookupWords' prefix mode and the sentence DP's resume-key scan need.
func (s *SQLiteStore) PrefixIterate(prefix, resumeKey string, fn func(key, value string) bool) error {
	rows, err := s.db.Query(
		`SELECT key, value FROM entries WHERE key >= ? AND key > ? ORDER BY key`,
		prefix, resumeKey)
	if err != nil {
		return fmt.Errorf("userdict: prefix iterate: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("userdict: prefix iterate scan: %w", err)
		}
		if len(key) < len(prefix) || key[:len(prefix)] != prefix {
			break
		}
		if !fn(key, value) {
			break
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) MetaGet(key string) (string, bool) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

func (s *SQLiteStore) MetaPut(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("userdict: meta put %s: %w", key, err)
	}
	return nil
}
