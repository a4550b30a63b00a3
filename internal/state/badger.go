package state

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// blobPrefix namespaces engine blobs inside the Badger keyspace.
const blobPrefix = "blob:"

// BadgerStore keeps blobs in an embedded Badger database.
type BadgerStore struct {
	db     *badger.DB
	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens a Badger store in dir. An empty dir opens an in-memory store.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create badger directory: %w", err)
	}

	// Quiet logger and small tables; the blobs are tiny.
	opts = opts.
		WithLogger(nil).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func blobKey(name string) []byte {
	return []byte(blobPrefix + name)
}

// Close closes the underlying database.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *BadgerStore) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// Load returns the blob stored under name.
func (b *BadgerStore) Load(name string) ([]byte, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(blobKey(name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("load blob %s: %w", name, err)
	}
	return data, err
}

// Save stores data under name.
func (b *BadgerStore) Save(name string, data []byte) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(blobKey(name), data)
	})
	if err != nil {
		return fmt.Errorf("save blob %s: %w", name, err)
	}
	return nil
}

// Delete removes the blob stored under name.
func (b *BadgerStore) Delete(name string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(blobKey(name))
	})
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", name, err)
	}
	return nil
}

// Names lists stored blob names in order.
func (b *BadgerStore) Names() ([]string, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}

	var names []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(blobPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			names = append(names, key[len(blobPrefix):])
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	sort.Strings(names)
	return names, nil
}
