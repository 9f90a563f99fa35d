package importer

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const stateSchema = `CREATE TABLE IF NOT EXISTS imported_files (
	path        TEXT PRIMARY KEY,
	hash        TEXT NOT NULL,
	sessions    INTEGER NOT NULL,
	imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// StateDB remembers which export files were fully imported, keyed by path and
// content hash. A file edited after import no longer matches and is sent again.
type StateDB struct {
	db *sql.DB
}

// OpenStateDB opens or creates dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}
	return &StateDB{db: db}, nil
}

// IsImported reports whether path was imported with this content hash.
func (s *StateDB) IsImported(path, hash string) (bool, error) {
	var stored string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&stored)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	return stored == hash, nil
}

// MarkImported records a fully imported file, replacing any earlier version.
func (s *StateDB) MarkImported(path, hash string, sessions int) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash, sessions) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET hash = excluded.hash, sessions = excluded.sessions,
		 imported_at = CURRENT_TIMESTAMP`,
		path, hash, sessions,
	)
	if err != nil {
		return fmt.Errorf("marking %s: %w", path, err)
	}
	return nil
}

func (s *StateDB) Close() error {
	return s.db.Close()
}

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
