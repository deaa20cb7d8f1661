package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"mykash/internal/domain"
)

// Store is the record storage behind the dev server. The production ledger
// is out of scope; this exists so every client path has a wire to exercise.
type Store interface {
	CreateAccount(a *domain.Account) error
	GetAccount(userID string) (*domain.Account, error)
	FindByIdentifier(identifier string) (*domain.Account, error)
	UpdateAccount(a *domain.Account) error
	ListAccounts() ([]domain.Account, error)

	AppendTransaction(tx *domain.Transaction) error
	HistoryFor(userID string) ([]domain.Transaction, error)

	CreateBalanceRequest(br *domain.BalanceRequest) error
	GetBalanceRequest(requestID string) (*domain.BalanceRequest, error)
	UpdateBalanceRequest(br *domain.BalanceRequest) error
	ListBalanceRequests(status domain.BalanceRequestStatus) ([]domain.BalanceRequest, error)

	GetIdempotent(key string) ([]byte, bool, error)
	PutIdempotent(key string, payload []byte) error

	Close() error
}

const (
	accountPrefix        = "acct:"
	transactionPrefix    = "txn:"
	balanceRequestPrefix = "breq:"
	idempotencyPrefix    = "idem:"
)

type badgerStore struct {
	db     *badger.DB
	logger *zap.Logger
}

func OpenStore(dir string, logger *zap.Logger) (Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open dev server store at %s: %w", dir, err)
	}
	return &badgerStore{db: db, logger: logger}, nil
}

// OpenInMemoryStore backs the store with badger's in-memory mode; used by
// tests and throwaway runs.
func OpenInMemoryStore(logger *zap.Logger) (Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}
	return &badgerStore{db: db, logger: logger}, nil
}

func (s *badgerStore) Close() error { return s.db.Close() }

func (s *badgerStore) put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), raw)
	})
}

func (s *badgerStore) get(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

func (s *badgerStore) CreateAccount(a *domain.Account) error {
	existing, err := s.FindByIdentifier(a.Mobile)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}
	if existing == nil && a.Email != "" {
		existing, err = s.FindByIdentifier(a.Email)
		if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			return err
		}
	}
	if existing != nil {
		return domain.ErrAccountExists
	}
	return s.put(accountPrefix+a.UserID, a)
}

func (s *badgerStore) GetAccount(userID string) (*domain.Account, error) {
	var a domain.Account
	err := s.get(accountPrefix+userID, &a)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account %s: %w", userID, err)
	}
	return &a, nil
}

// FindByIdentifier matches on mobile or email, the two login identifiers.
func (s *badgerStore) FindByIdentifier(identifier string) (*domain.Account, error) {
	accounts, err := s.ListAccounts()
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Mobile == identifier || strings.EqualFold(accounts[i].Email, identifier) {
			return &accounts[i], nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (s *badgerStore) UpdateAccount(a *domain.Account) error {
	if _, err := s.GetAccount(a.UserID); err != nil {
		return err
	}
	now := time.Now()
	a.UpdatedAt = &now
	return s.put(accountPrefix+a.UserID, a)
}

func (s *badgerStore) ListAccounts() ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.iterate(accountPrefix, func(val []byte) error {
		var a domain.Account
		if err := json.Unmarshal(val, &a); err != nil {
			return err
		}
		accounts = append(accounts, a)
		return nil
	})
	return accounts, err
}

func (s *badgerStore) AppendTransaction(tx *domain.Transaction) error {
	// Time-prefixed keys keep iteration in creation order.
	key := fmt.Sprintf("%s%020d:%s", transactionPrefix, tx.CreatedAt.UnixNano(), tx.TransactionID)
	return s.put(key, tx)
}

func (s *badgerStore) HistoryFor(userID string) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	err := s.iterate(transactionPrefix, func(val []byte) error {
		var tx domain.Transaction
		if err := json.Unmarshal(val, &tx); err != nil {
			return err
		}
		if (tx.FromAccount != nil && tx.FromAccount.UserID == userID) ||
			(tx.ToAccount != nil && tx.ToAccount.UserID == userID) {
			txs = append(txs, tx)
		}
		return nil
	})
	return txs, err
}

func (s *badgerStore) CreateBalanceRequest(br *domain.BalanceRequest) error {
	return s.put(balanceRequestPrefix+br.RequestID, br)
}

func (s *badgerStore) GetBalanceRequest(requestID string) (*domain.BalanceRequest, error) {
	var br domain.BalanceRequest
	err := s.get(balanceRequestPrefix+requestID, &br)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read balance request %s: %w", requestID, err)
	}
	return &br, nil
}

func (s *badgerStore) UpdateBalanceRequest(br *domain.BalanceRequest) error {
	now := time.Now()
	br.UpdatedAt = &now
	return s.put(balanceRequestPrefix+br.RequestID, br)
}

func (s *badgerStore) ListBalanceRequests(status domain.BalanceRequestStatus) ([]domain.BalanceRequest, error) {
	var reqs []domain.BalanceRequest
	err := s.iterate(balanceRequestPrefix, func(val []byte) error {
		var br domain.BalanceRequest
		if err := json.Unmarshal(val, &br); err != nil {
			return err
		}
		if status == "" || br.Status == status {
			reqs = append(reqs, br)
		}
		return nil
	})
	return reqs, err
}

func (s *badgerStore) GetIdempotent(key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(idempotencyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			payload = append([]byte(nil), val...)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read idempotency record: %w", err)
	}
	return payload, true, nil
}

func (s *badgerStore) PutIdempotent(key string, payload []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(idempotencyPrefix+key), payload)
	})
}

func (s *badgerStore) iterate(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		iter := txn.NewIterator(opts)
		defer iter.Close()

		p := []byte(prefix)
		for iter.Seek(p); iter.ValidForPrefix(p); iter.Next() {
			if err := iter.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
