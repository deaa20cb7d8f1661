package api

import (
	"context"
	"net/http"

	"mykash/internal/domain"
)

type CreateBalanceRequestPayload struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

// ApproveBalanceRequestResult combines the approved request with the
// transaction the backend records for it.
type ApproveBalanceRequestResult struct {
	Transaction    domain.Transaction    `json:"transaction"`
	BalanceRequest domain.BalanceRequest `json:"balanceRequest"`
}

func (c *Client) CreateBalanceRequest(ctx context.Context, p CreateBalanceRequestPayload) (*domain.BalanceRequest, string, error) {
	br, msg, err := request[domain.BalanceRequest](ctx, c, http.MethodPost, balanceRequestBase+"/create", p, idempotencyKey())
	if err != nil {
		return nil, msg, err
	}
	return &br, msg, nil
}

func (c *Client) ApproveBalanceRequest(ctx context.Context, requestID string) (*ApproveBalanceRequestResult, string, error) {
	res, msg, err := request[ApproveBalanceRequestResult](ctx, c, http.MethodPost, balanceRequestBase+"/approve",
		map[string]string{"requestId": requestID}, nil)
	if err != nil {
		return nil, msg, err
	}
	return &res, msg, nil
}

func (c *Client) PendingBalanceRequests(ctx context.Context) ([]domain.BalanceRequest, error) {
	reqs, _, err := request[[]domain.BalanceRequest](ctx, c, http.MethodGet, balanceRequestBase+"/pending", nil, nil)
	return reqs, err
}
