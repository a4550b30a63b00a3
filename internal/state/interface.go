// Package state persists named engine blobs in SQLite, Badger or memory.
package state

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNotFound indicates no blob is stored under the name.
	ErrNotFound = errors.New("blob not found")
	// ErrSchemaMismatch indicates a stored envelope has an unexpected schema, kind or version.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store closed")
)

// BlobStore loads and saves opaque blobs keyed by name.
type BlobStore interface {
	io.Closer
	Load(name string) ([]byte, error)
	Save(name string, data []byte) error
	Delete(name string) error
	Names() ([]string, error)
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the SQLite file or the Badger directory.
	Path string
	// Driver is the database/sql driver for SQLite: "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string
}

// Open creates the configured store.
func Open(opts Options) (BlobStore, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendSQLite:
		db, err := OpenDB(opts.Path, opts.Driver)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case BackendBadger:
		return OpenBadger(opts.Path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

// Compile-time verification that every backend implements BlobStore.
var (
	_ BlobStore = (*DB)(nil)
	_ BlobStore = (*BadgerStore)(nil)
	_ BlobStore = (*Memory)(nil)
)
