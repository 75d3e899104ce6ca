package models

import (
	"time"

	"github.com/skypro/simplebanking/internal/domain"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	Accounts     []Account `json:"accounts,omitempty"`
}

type Account struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Currency  domain.Currency `json:"currency"`
	Balance   int64           `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}
