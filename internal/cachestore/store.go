// file: internal/cachestore/store.go
// version: 1.0.0
// guid: c3d4e5f6-a7b8-9c0d-1e2f-3a4b5c6d7e8f

package cachestore

import (
	"fmt"
)

// Store is a persistent cache backend. Values are opaque JSON blobs keyed by
// the SHA-256 cache key from internal/cache; entries never expire because
// resolution results are deterministic for a fixed upstream catalog state.
// This abstraction allows us to support both PebbleDB (default) and SQLite3
// (opt-in).
type Store interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Count() (int, error)
	Close() error
}

// Global store instance
var GlobalStore Store

// InitializeStore initializes the cache store based on configuration
func InitializeStore(storeType, path string, enableSQLite bool) error {
	var err error

	switch storeType {
	case "sqlite", "sqlite3":
		if !enableSQLite {
			return fmt.Errorf("SQLite3 is not enabled. To use SQLite3, you must explicitly enable it with --enable-sqlite3-i-know-the-risks or set 'enable_sqlite3_i_know_the_risks: true' in your config file. PebbleDB is the recommended cache store")
		}
		GlobalStore, err = NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
	case "pebble", "":
		// PebbleDB is the default
		GlobalStore, err = NewPebbleStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize PebbleDB store: %w", err)
		}
	default:
		return fmt.Errorf("unsupported cache store type: %s (supported: pebble, sqlite)", storeType)
	}

	return nil
}

// CloseStore closes the global store
func CloseStore() error {
	if GlobalStore != nil {
		err := GlobalStore.Close()
		GlobalStore = nil
		return err
	}
	return nil
}
