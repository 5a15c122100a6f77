// file: internal/cachestore/sqlite_store.go
// version: 1.0.0
// guid: e5f6a7b8-c9d0-1e2f-3a4b-5c6d7e8f9a0b

package cachestore

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store using SQLite3
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite cache store
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS resolutions (
            key TEXT PRIMARY KEY,
            value BLOB NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `); err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating resolutions table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get retrieves a cached value by key.
func (s *SQLiteStore) Get(key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM resolutions WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Printf("[WARN] sqlite cache get failed for %s: %v", key, err)
		return nil, false
	}
	return value, true
}

// Set stores a cached value by key.
func (s *SQLiteStore) Set(key string, value []byte) {
	_, err := s.db.Exec(`
        INSERT INTO resolutions (key, value) VALUES (?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value
    `, key, value)
	if err != nil {
		log.Printf("[WARN] sqlite cache set failed for %s: %v", key, err)
	}
}

// Count returns the number of cached resolutions.
func (s *SQLiteStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM resolutions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count resolutions: %w", err)
	}
	return count, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
