// Package history fetches a user's transaction list and derives the
// display-only direction, sign, and counterpart for each entry. It never
// mutates fetched data.
package history

import (
	"context"

	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/domain"
)

type Service struct {
	api   *api.Client
	cache *cache.Cache
}

func NewService(apiClient *api.Client, c *cache.Cache) *Service {
	return &Service{api: apiClient, cache: c}
}

func (s *Service) History(ctx context.Context, userID string) ([]domain.Transaction, error) {
	return cache.Query(ctx, s.cache, cache.KeyHistory(userID), func(ctx context.Context) ([]domain.Transaction, error) {
		return s.api.GetHistory(ctx, userID)
	})
}

type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// DirectionOf: a transaction is incoming iff it is a sendMoney or cashIn
// whose recipient is the signed-in user. Everything else, cashOut included,
// renders as outgoing regardless of identifiers.
func DirectionOf(tx domain.Transaction, currentUserID string) Direction {
	if (tx.Type == domain.ServiceSendMoney || tx.Type == domain.ServiceCashIn) &&
		tx.ToAccount != nil && tx.ToAccount.UserID == currentUserID {
		return Incoming
	}
	return Outgoing
}

func (d Direction) Sign() string {
	if d == Incoming {
		return "+"
	}
	return "-"
}

// Counterpart names the other side of the transaction: the sender when
// incoming, the receiver otherwise.
func Counterpart(tx domain.Transaction, d Direction) (label, name string) {
	if d == Incoming {
		if tx.FromAccount != nil && tx.FromAccount.Name != "" {
			return "From", tx.FromAccount.Name
		}
		return "From", "Unknown"
	}
	if tx.ToAccount != nil && tx.ToAccount.Name != "" {
		return "To", tx.ToAccount.Name
	}
	return "To", "Unknown"
}
