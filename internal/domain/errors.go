package domain

import "errors"

var (
	ErrNotSignedIn         = errors.New("not signed in")
	ErrForbidden           = errors.New("admin role required")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("insufficient usable balance")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWrongPIN            = errors.New("wrong pin")
	ErrAgentInactive       = errors.New("agent is not active")
	ErrAccountBlocked      = errors.New("account is blocked")
	ErrServiceNotAllowed   = errors.New("service not allowed for role")
	ErrNoService           = errors.New("no service selected")
	ErrNoTarget            = errors.New("no target selected")
	ErrUnknownTarget       = errors.New("target is not a candidate")
	ErrPinRequired         = errors.New("pin is required")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrRequestNotFound     = errors.New("balance request not found")
	ErrRequestNotPending   = errors.New("balance request is not pending")
)
