package domain

import "time"

type ServiceType string

const (
	ServiceSendMoney      ServiceType = "sendMoney"
	ServiceCashIn         ServiceType = "cashIn"
	ServiceCashOut        ServiceType = "cashOut"
	ServiceBalanceRequest ServiceType = "balanceRequest"
)

// RequiresTarget reports whether the service needs a counterparty selected
// before submission. Balance requests have no counterparty.
func (s ServiceType) RequiresTarget() bool {
	return s != ServiceBalanceRequest
}

// RequiresPIN reports whether the service payload carries a PIN.
func (s ServiceType) RequiresPIN() bool {
	return s == ServiceCashIn || s == ServiceCashOut
}

// AllowedServices lists the services a role may dispatch.
func AllowedServices(role Role) []ServiceType {
	switch role {
	case RoleUser:
		return []ServiceType{ServiceSendMoney, ServiceCashOut}
	case RoleAgent:
		return []ServiceType{ServiceCashIn, ServiceBalanceRequest}
	default:
		return nil
	}
}

// Transaction is immutable once created; the client only reads it.
type Transaction struct {
	TransactionID string          `json:"transactionId"`
	FromAccount   *AccountSummary `json:"fromAccount,omitempty"`
	ToAccount     *AccountSummary `json:"toAccount,omitempty"`
	Amount        float64         `json:"amount"`
	Fee           float64         `json:"fee"`
	Type          ServiceType     `json:"transactionType"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}
