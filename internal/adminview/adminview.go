// Package adminview backs the admin dashboard: aggregate balance display
// plus the agent-approval and balance-request-approval workflows. All
// aggregation beyond a simple subtraction comes from the backend.
package adminview

import (
	"context"

	"go.uber.org/zap"

	"mykash/internal/api"
	"mykash/internal/cache"
	"mykash/internal/domain"
)

type Service struct {
	api    *api.Client
	cache  *cache.Cache
	logger *zap.Logger
}

func NewService(apiClient *api.Client, c *cache.Cache, logger *zap.Logger) *Service {
	return &Service{api: apiClient, cache: c, logger: logger}
}

// Overview is the dashboard's read model.
type Overview struct {
	TotalBalance      float64
	TotalUserBalance  float64
	TotalAgentBalance float64
	TotalUsers        int
	ActiveUsers       int
	InactiveUsers     int
	TotalAgents       int
	RegularUsers      int
	PendingAgents     []domain.Account
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	total, err := cache.Query(ctx, s.cache, cache.KeyTotalBalance, func(ctx context.Context) (float64, error) {
		return s.api.GetTotalBalance(ctx)
	})
	if err != nil {
		return nil, err
	}
	userTotal, err := cache.Query(ctx, s.cache, cache.KeyTotalUserBalance, func(ctx context.Context) (float64, error) {
		return s.api.GetTotalUserBalance(ctx)
	})
	if err != nil {
		return nil, err
	}
	agentTotal, err := cache.Query(ctx, s.cache, cache.KeyTotalAgentBalance, func(ctx context.Context) (float64, error) {
		return s.api.GetTotalAgentBalance(ctx)
	})
	if err != nil {
		return nil, err
	}
	users, err := cache.Query(ctx, s.cache, cache.KeyAdminUsers, func(ctx context.Context) (*api.UsersResult, error) {
		return s.api.GetAllUsers(ctx)
	})
	if err != nil {
		return nil, err
	}

	ov := &Overview{
		TotalBalance:      total,
		TotalUserBalance:  userTotal,
		TotalAgentBalance: agentTotal,
		TotalUsers:        users.TotalUsers,
		ActiveUsers:       users.ActiveUsers,
		InactiveUsers:     users.InactiveUsers,
	}
	for _, u := range users.Users {
		if u.Role == domain.RoleAgent {
			ov.TotalAgents++
			if !u.IsActive {
				ov.PendingAgents = append(ov.PendingAgents, u)
			}
		}
	}
	ov.RegularUsers = ov.TotalUsers - ov.TotalAgents
	return ov, nil
}

// ApproveAgent fires one PUT and invalidates the user list on success so
// the pending count refreshes.
func (s *Service) ApproveAgent(ctx context.Context, userID string) (*domain.Account, string, error) {
	var msg string
	acct, err := cache.Mutate(ctx, s.cache, []string{cache.KeyAdminUsers, cache.KeyAccount(userID)},
		func(ctx context.Context) (*domain.Account, error) {
			a, m, err := s.api.ApproveAgent(ctx, userID)
			msg = m
			return a, err
		})
	if err != nil {
		s.logger.Warn("agent approval failed", zap.String("user_id", userID), zap.Error(err))
		return nil, msg, err
	}
	s.logger.Info("agent approved", zap.String("user_id", userID))
	return acct, msg, nil
}

func (s *Service) PendingBalanceRequests(ctx context.Context) ([]domain.BalanceRequest, error) {
	return cache.Query(ctx, s.cache, cache.KeyBalanceRequestsPending, func(ctx context.Context) ([]domain.BalanceRequest, error) {
		return s.api.PendingBalanceRequests(ctx)
	})
}

func (s *Service) ApproveBalanceRequest(ctx context.Context, requestID string) (*api.ApproveBalanceRequestResult, string, error) {
	var msg string
	res, err := cache.Mutate(ctx, s.cache,
		[]string{cache.KeyBalanceRequestsPending, cache.KeyTotalBalance, cache.KeyTotalAgentBalance},
		func(ctx context.Context) (*api.ApproveBalanceRequestResult, error) {
			r, m, err := s.api.ApproveBalanceRequest(ctx, requestID)
			msg = m
			return r, err
		})
	if err != nil {
		s.logger.Warn("balance request approval failed", zap.String("request_id", requestID), zap.Error(err))
		return nil, msg, err
	}
	s.logger.Info("balance request approved", zap.String("request_id", requestID))
	return res, msg, nil
}

// ToggleBlock flips the blocked flag optimistically: the returned account
// reflects the new state on success and the original state when the backend
// rejects the mutation.
func (s *Service) ToggleBlock(ctx context.Context, acct domain.Account) (domain.Account, error) {
	return runOptimistic(ctx, acct,
		func(a domain.Account) domain.Account {
			a.IsBlocked = !a.IsBlocked
			return a
		},
		func(ctx context.Context, a domain.Account) error {
			_, err := cache.Mutate(ctx, s.cache, []string{cache.KeyAdminUsers, cache.KeyAccount(a.UserID)},
				func(ctx context.Context) (*domain.Account, error) {
					updated, _, err := s.api.BlockUser(ctx, a.UserID)
					return updated, err
				})
			return err
		})
}
