package models

import "errors"

// Domain errors surfaced by the services. Handlers map these to HTTP statuses;
// nothing is retried internally.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountNotFound    = errors.New("account not found")
	ErrWrongCurrency      = errors.New("account currencies do not match")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
