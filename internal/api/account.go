package api

import (
	"context"
	"net/http"

	"mykash/internal/domain"
)

// RegisterInput carries the account fields the registration form collects.
type RegisterInput struct {
	Name   string      `json:"name"`
	Mobile string      `json:"mobile"`
	Email  string      `json:"email"`
	NID    string      `json:"nid"`
	PIN    string      `json:"pin"`
	Role   domain.Role `json:"role"`
}

func (c *Client) Register(ctx context.Context, in RegisterInput) (*domain.Account, string, error) {
	acct, msg, err := request[domain.Account](ctx, c, http.MethodPost, accountBase+"/register", in, nil)
	if err != nil {
		return nil, msg, err
	}
	return &acct, msg, nil
}

type loginPayload struct {
	Identifier string `json:"identifier"`
	PIN        string `json:"pin"`
}

func (c *Client) Login(ctx context.Context, identifier, pin string) (*domain.Account, string, error) {
	acct, msg, err := request[domain.Account](ctx, c, http.MethodPost, accountBase+"/login", loginPayload{Identifier: identifier, PIN: pin}, nil)
	if err != nil {
		return nil, msg, err
	}
	return &acct, msg, nil
}

func (c *Client) Logout(ctx context.Context) (string, error) {
	_, msg, err := request[struct{}](ctx, c, http.MethodGet, accountBase+"/logout", nil, nil)
	return msg, err
}
