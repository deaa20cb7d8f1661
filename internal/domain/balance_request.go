package domain

import "time"

type BalanceRequestStatus string

const (
	BalanceRequestPending  BalanceRequestStatus = "pending"
	BalanceRequestApproved BalanceRequestStatus = "approved"
	BalanceRequestRejected BalanceRequestStatus = "rejected"
)

// BalanceRequest is an agent's request for a balance top-up, mutated only
// through the approve endpoint.
type BalanceRequest struct {
	RequestID string               `json:"requestId"`
	UserID    string               `json:"userId"`
	Amount    float64              `json:"amount"`
	Status    BalanceRequestStatus `json:"status"`
	CreatedAt *time.Time           `json:"createdAt,omitempty"`
	UpdatedAt *time.Time           `json:"updatedAt,omitempty"`
}
