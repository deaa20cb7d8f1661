// Package cache is a query cache keyed by logical resource name. Multiple
// readers of one key share a single in-flight fetch and one cached result.
// Writers only ever invalidate entries, never patch them, so a brief stale
// read between a mutation and the next refetch is possible and accepted.
package cache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Well-known query keys shared by the client components.
const (
	KeyAdminUsers             = "admin-users"
	KeyTotalBalance           = "total-balance"
	KeyTotalUserBalance       = "total-user-balance"
	KeyTotalAgentBalance      = "total-agent-balance"
	KeyBalanceRequestsPending = "balance-requests-pending"
	KeyTransactions           = "transactions"
)

func KeyAccount(userID string) string { return "account/" + userID }
func KeyHistory(userID string) string { return "history/" + userID }

type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
	group   singleflight.Group
	logger  *zap.Logger
}

func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]any),
		logger:  logger,
	}
}

// Query returns the cached value for key, fetching it at most once across
// concurrent callers when absent.
func Query[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		if v, ok := cached.(T); ok {
			return v, nil
		}
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = v
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

// Refetch drops the entry and fetches it again.
func Refetch[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	c.Invalidate(key)
	return Query(ctx, c, key, fetch)
}

// Invalidate drops the given entries; dependent views refetch on next read.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	c.logger.Debug("cache invalidated", zap.Strings("keys", keys))
}

// Mutate runs a mutation and invalidates its related query keys on success
// only. Mutation errors never touch the cache.
func Mutate[T any](ctx context.Context, c *Cache, invalidates []string, mutate func(ctx context.Context) (T, error)) (T, error) {
	res, err := mutate(ctx)
	if err != nil {
		return res, err
	}
	c.Invalidate(invalidates...)
	return res, nil
}
