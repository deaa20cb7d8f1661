package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Reserve is the fixed amount that must remain on an account after any
// debit. The client uses it only for early validation feedback; the backend
// enforces it for real.
const Reserve = 10

// Account mirrors the server-side account record. The balance is
// authoritative only immediately after a fetch.
type Account struct {
	UserID    string     `json:"userID"`
	Name      string     `json:"name"`
	Mobile    string     `json:"mobile"`
	Email     string     `json:"email"`
	NID       string     `json:"nid"`
	PIN       string     `json:"pin,omitempty"`
	Role      Role       `json:"role"`
	Balance   float64    `json:"balance"`
	IsActive  bool       `json:"isActive"`
	IsBlocked bool       `json:"isBlocked"`
	IsDelete  bool       `json:"isDelete"`
	Favorites []string   `json:"favorites,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// AccountSummary is the counterparty projection embedded in transactions.
type AccountSummary struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
}

func (a *Account) Summary() *AccountSummary {
	return &AccountSummary{UserID: a.UserID, Name: a.Name}
}

// UsableBalance is the display-only spendable portion of a balance:
// the balance minus the fixed reserve, floored at zero.
func UsableBalance(balance float64) float64 {
	usable := balance - Reserve
	if usable < 0 {
		return 0
	}
	return usable
}
