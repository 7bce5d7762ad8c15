package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
)

// Store wraps a single embedded badger.DB with scoped-transaction helpers:
// every call acquires a transaction, commits on success, and discards on
// any error, never leaking a transaction across calls (spec §4.6).
type Store struct {
	log zerolog.Logger
	db  *badger.DB
}

// Open opens (creating if absent) a badger store at path.
func Open(log zerolog.Logger, path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open store at %q: %w", path, err)
	}
	return &Store{log: log, db: db}, nil
}

// Close releases the underlying badger.DB.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) write(ops ...func(tx *badger.Txn) error) error {
	return s.db.Update(func(tx *badger.Txn) error {
		for _, op := range ops {
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) read(ops ...func(tx *badger.Txn) error) error {
	return s.db.View(func(tx *badger.Txn) error {
		for _, op := range ops {
			if err := op(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
