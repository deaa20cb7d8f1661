// Package session derives the signed-in user from the locally stored
// account identifier plus a server round trip. It owns the explicit
// login/logout API so no other component reads the state store directly.
package session

import (
	"context"

	"go.uber.org/zap"

	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/domain"
)

// User is the fixed projection of the fetched account exposed to the rest
// of the client.
type User struct {
	ID      string
	Name    string
	Mobile  string
	Role    domain.Role
	Balance float64
}

// SessionStore is the slice of the client state store the manager needs.
type SessionStore interface {
	SessionUserID() (string, error)
	SetSessionUserID(userID string) error
	ClearSession() error
}

type Manager struct {
	api    *api.Client
	cache  *cache.Cache
	store  SessionStore
	logger *zap.Logger
}

func NewManager(apiClient *api.Client, c *cache.Cache, store SessionStore, logger *zap.Logger) *Manager {
	return &Manager{api: apiClient, cache: c, store: store, logger: logger}
}

// Current resolves the signed-in user. It returns (nil, nil) when no
// identifier is stored, so no spurious fetch is made. A stored identifier
// pointing at a blocked or deleted account still resolves non-nil unless
// the backend rejects the fetch.
func (m *Manager) Current(ctx context.Context) (*User, error) {
	id, err := m.store.SessionUserID()
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	acct, err := cache.Query(ctx, m.cache, cache.KeyAccount(id), func(ctx context.Context) (*domain.Account, error) {
		return m.api.GetUser(ctx, id)
	})
	if err != nil {
		m.logger.Warn("session account fetch failed", zap.String("user_id", id), zap.Error(err))
		return nil, err
	}

	return &User{
		ID:      acct.UserID,
		Name:    acct.Name,
		Mobile:  acct.Mobile,
		Role:    acct.Role,
		Balance: acct.Balance,
	}, nil
}

// Refetch drops the cached account so the next Current call hits the server.
func (m *Manager) Refetch(ctx context.Context) (*User, error) {
	id, err := m.store.SessionUserID()
	if err != nil {
		return nil, err
	}
	if id != "" {
		m.cache.Invalidate(cache.KeyAccount(id))
	}
	return m.Current(ctx)
}

// Login authenticates and persists the returned identifier as the session.
func (m *Manager) Login(ctx context.Context, identifier, pin string) (*User, string, error) {
	acct, msg, err := m.api.Login(ctx, identifier, pin)
	if err != nil {
		return nil, msg, err
	}
	if err := m.store.SetSessionUserID(acct.UserID); err != nil {
		return nil, msg, err
	}
	m.cache.Invalidate(cache.KeyAccount(acct.UserID))
	m.logger.Info("signed in", zap.String("user_id", acct.UserID), zap.String("role", string(acct.Role)))
	return &User{
		ID:      acct.UserID,
		Name:    acct.Name,
		Mobile:  acct.Mobile,
		Role:    acct.Role,
		Balance: acct.Balance,
	}, msg, nil
}

// Logout clears the stored identifier even if the server call fails; the
// identifier is the only session state the client owns.
func (m *Manager) Logout(ctx context.Context) (string, error) {
	id, err := m.store.SessionUserID()
	if err != nil {
		return "", err
	}
	msg, apiErr := m.api.Logout(ctx)
	if err := m.store.ClearSession(); err != nil {
		return msg, err
	}
	if id != "" {
		m.cache.Invalidate(cache.KeyAccount(id))
	}
	m.logger.Info("signed out", zap.String("user_id", id))
	return msg, apiErr
}

// RequireUser gates on session presence. Callers treat ErrNotSignedIn as a
// redirect to login.
func (m *Manager) RequireUser(ctx context.Context) (*User, error) {
	user, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotSignedIn
	}
	return user, nil
}

// RequireAdmin additionally gates on the admin role.
func (m *Manager) RequireAdmin(ctx context.Context) (*User, error) {
	user, err := m.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if user.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}
	return user, nil
}
