package api

import (
	"context"
	"net/http"

	"mykash/internal/domain"
)

// UsersResult is the shape of GET /users: the full user list plus the
// backend-computed counts.
type UsersResult struct {
	Users         []domain.Account `json:"users"`
	TotalUsers    int              `json:"totalUsers"`
	ActiveUsers   int              `json:"activeUsers"`
	InactiveUsers int              `json:"inactiveUsers"`
}

func (c *Client) GetUser(ctx context.Context, userID string) (*domain.Account, error) {
	acct, _, err := request[domain.Account](ctx, c, http.MethodGet, adminBase+"/user/"+userID, nil, nil)
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (c *Client) GetAllUsers(ctx context.Context) (*UsersResult, error) {
	res, _, err := request[UsersResult](ctx, c, http.MethodGet, adminBase+"/users", nil, nil)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) ApproveAgent(ctx context.Context, userID string) (*domain.Account, string, error) {
	acct, msg, err := request[domain.Account](ctx, c, http.MethodPut, adminBase+"/approve-agent/"+userID, nil, nil)
	if err != nil {
		return nil, msg, err
	}
	return &acct, msg, nil
}

func (c *Client) BlockUser(ctx context.Context, userID string) (*domain.Account, string, error) {
	acct, msg, err := request[domain.Account](ctx, c, http.MethodPut, adminBase+"/block-user/"+userID, nil, nil)
	if err != nil {
		return nil, msg, err
	}
	return &acct, msg, nil
}

func (c *Client) GetTotalBalance(ctx context.Context) (float64, error) {
	res, _, err := request[struct {
		TotalBalance float64 `json:"totalBalance"`
	}](ctx, c, http.MethodGet, adminBase+"/total-balance", nil, nil)
	return res.TotalBalance, err
}

func (c *Client) GetTotalUserBalance(ctx context.Context) (float64, error) {
	res, _, err := request[struct {
		TotalUserBalance float64 `json:"totalUserBalance"`
	}](ctx, c, http.MethodGet, adminBase+"/total-balance/user", nil, nil)
	return res.TotalUserBalance, err
}

func (c *Client) GetTotalAgentBalance(ctx context.Context) (float64, error) {
	res, _, err := request[struct {
		TotalAgentBalance float64 `json:"totalAgentBalance"`
	}](ctx, c, http.MethodGet, adminBase+"/total-balance/agent", nil, nil)
	return res.TotalAgentBalance, err
}

func (c *Client) GetHistory(ctx context.Context, userID string) ([]domain.Transaction, error) {
	txs, _, err := request[[]domain.Transaction](ctx, c, http.MethodGet, adminBase+"/history/"+userID, nil, nil)
	return txs, err
}
