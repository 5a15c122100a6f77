// file: internal/cachestore/pebble_store.go
// version: 1.0.0
// guid: d4e5f6a7-b8c9-0d1e-2f3a-4b5c6d7e8f9a

package cachestore

import (
	"fmt"
	"log"

	"github.com/cockroachdb/pebble/v2"
)

// PebbleStore implements Store using PebbleDB (LSM key-value store).
//
// Key Schema:
// - resolution:<sha256-key> -> cached JSON value
type PebbleStore struct {
	db *pebble.DB
}

const pebbleKeyPrefix = "resolution:"

// NewPebbleStore creates a new PebbleDB cache store
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open PebbleDB: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// Get retrieves a cached value by key.
func (p *PebbleStore) Get(key string) ([]byte, bool) {
	value, closer, err := p.db.Get([]byte(pebbleKeyPrefix + key))
	if err == pebble.ErrNotFound {
		return nil, false
	}
	if err != nil {
		log.Printf("[WARN] pebble cache get failed for %s: %v", key, err)
		return nil, false
	}
	defer closer.Close()

	// Copy before the closer releases the underlying buffer.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Set stores a cached value by key.
func (p *PebbleStore) Set(key string, value []byte) {
	if err := p.db.Set([]byte(pebbleKeyPrefix+key), value, pebble.Sync); err != nil {
		log.Printf("[WARN] pebble cache set failed for %s: %v", key, err)
	}
}

// Count returns the number of cached resolutions.
func (p *PebbleStore) Count() (int, error) {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(pebbleKeyPrefix),
		UpperBound: []byte(pebbleKeyPrefix + "\xff"),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create iterator: %w", err)
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	return count, iter.Error()
}

// Close closes the database
func (p *PebbleStore) Close() error {
	return p.db.Close()
}
