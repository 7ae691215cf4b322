// Package cache provides the content-addressed response cache for course
// generation results.
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned by Store.Get when the key is absent or expired.
var ErrKeyNotFound = errors.New("cache: key not found")

// Store is a key/value store with per-entry TTL. The TTL is enforced by the
// store itself; expired keys behave as absent.
type Store interface {
	Get(key string) ([]byte, error)
	SetWithTTL(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Close() error
}

// BadgerStore implements Store on BadgerDB. With an empty path the database
// runs fully in memory, which loses entries on restart but needs no volume.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens a BadgerDB at path, or in memory when path is empty.
func NewBadgerStore(path string) (*BadgerStore, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	} else {
		opts = badger.DefaultOptions(path).WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Get returns the value for key, or ErrKeyNotFound when absent or expired.
func (s *BadgerStore) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get key: %w", err)
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// SetWithTTL stores value under key; the entry expires after ttl. Badger
// tracks expiry with one-second granularity, so sub-second TTLs expire
// immediately.
func (s *BadgerStore) SetWithTTL(key string, value []byte, ttl time.Duration) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (s *BadgerStore) Delete(key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
