// Package store is the client-persisted state, backed by an embedded badger
// database under the configured state directory. The stored session
// identifier is the sole session marker: no token, no expiry.
package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const sessionKey = "session/userID"

type Store struct {
	db     *badger.DB
	logger *zap.Logger
}

func Open(dir string, logger *zap.Logger) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store at %s: %w", dir, err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SessionUserID returns the stored account identifier, or "" when signed out.
func (s *Store) SessionUserID() (string, error) {
	var id string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return id, nil
}

func (s *Store) SetSessionUserID(userID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(sessionKey), []byte(userID))
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	s.logger.Debug("session identifier stored", zap.String("user_id", userID))
	return nil
}

func (s *Store) ClearSession() error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKey))
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.Debug("session identifier cleared")
	return nil
}
