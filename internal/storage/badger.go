package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps room state in an embedded Badger database
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger
}

// OpenBadger opens the database at path. An empty path opens an in-memory
// database.
func OpenBadger(path string, log *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return NewBadgerStore(db, log), nil
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{
		db:  db,
		log: log,
	}
}

func badgerKey(scope, key string) []byte {
	return []byte(fmt.Sprintf("state:%s:%s", scope, key))
}

func (s *BadgerStore) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(scope, key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s/%s: %w", scope, key, err)
	}
	return value, nil
}

func (s *BadgerStore) Put(ctx context.Context, scope, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(scope, key), value)
	})
	if err != nil {
		return fmt.Errorf("badger set %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *BadgerStore) Close() error {
	s.log.Info("closing badger store")
	return s.db.Close()
}
