package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"mykash/internal/domain"
)

// Submissions carry a fresh idempotency key per attempt so a user retry can
// be deduplicated server-side.
func idempotencyKey() map[string]string {
	return map[string]string{idempotencyHeader: uuid.NewString()}
}

type SendMoneyPayload struct {
	SenderID           string  `json:"senderId"`
	ReceiverID         string  `json:"receiverId"`
	Amount             float64 `json:"amount"`
	IsFavoriteTransfer bool    `json:"isFavoriteTransfer"`
}

type CashInPayload struct {
	AgentID  string  `json:"agentId"`
	UserID   string  `json:"userId"`
	Amount   float64 `json:"amount"`
	AgentPIN string  `json:"agentPin"`
}

type CashOutPayload struct {
	UserID  string  `json:"userId"`
	AgentID string  `json:"agentId"`
	Amount  float64 `json:"amount"`
	UserPIN string  `json:"userPin"`
}

func (c *Client) SendMoney(ctx context.Context, p SendMoneyPayload) (*domain.Transaction, string, error) {
	tx, msg, err := request[domain.Transaction](ctx, c, http.MethodPost, transactionBase+"/send-money", p, idempotencyKey())
	if err != nil {
		return nil, msg, err
	}
	return &tx, msg, nil
}

func (c *Client) CashIn(ctx context.Context, p CashInPayload) (*domain.Transaction, string, error) {
	tx, msg, err := request[domain.Transaction](ctx, c, http.MethodPost, transactionBase+"/cash-in", p, idempotencyKey())
	if err != nil {
		return nil, msg, err
	}
	return &tx, msg, nil
}

func (c *Client) CashOut(ctx context.Context, p CashOutPayload) (*domain.Transaction, string, error) {
	tx, msg, err := request[domain.Transaction](ctx, c, http.MethodPost, transactionBase+"/cash-out", p, idempotencyKey())
	if err != nil {
		return nil, msg, err
	}
	return &tx, msg, nil
}
