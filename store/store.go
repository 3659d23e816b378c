// Package store is a small key-value pass-through to the embedded storage
// engines. Agents use it to persist their state.
package store

import (
	"github.com/pingcap/errors"
)

const (
	BackendLevelDB = "leveldb"
	BackendPebble  = "pebble"
)

var (
	ErrClosed         = errors.New("store is closed")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is an interface of the key-value storage.
type Store interface {
	// Insert puts the value under the given key, overwriting the existing one.
	Insert(key, value []byte) error
	// Lookup returns the value stored under the given key. The second value
	// is false if there is no such key.
	Lookup(key []byte) ([]byte, bool, error)
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key []byte) error
	// Sync makes the written data durable.
	Sync() error
	Close() error
}

// Open opens (or creates) the store of the given backend in the directory.
func Open(backend string, path string) (Store, error) {
	switch backend {
	case BackendLevelDB:
		return openLevelDB(path)
	case BackendPebble:
		return openPebble(path)
	}
	return nil, errors.Annotatef(ErrUnknownBackend, "%q", backend)
}
