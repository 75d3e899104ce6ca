package repository

import (
	"context"

	"github.com/skypro/simplebanking/internal/models"
)

// Store defines the data access contract required by the domain services.
//
// Account lookups scoped to an owner take a compound (userID, accountID) key so
// the ownership check happens in the same query as the fetch. The ForUpdate
// variants take a row lock and are only meaningful inside RunInTx.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetAccountForUpdate(ctx context.Context, id int64) (*models.Account, error)
	GetUserAccount(ctx context.Context, userID, accountID int64) (*models.Account, error)
	GetUserAccountForUpdate(ctx context.Context, userID, accountID int64) (*models.Account, error)
	ListUserAccounts(ctx context.Context, userID int64) ([]models.Account, error)

	// AddToBalance applies a signed delta to an account balance and returns the
	// updated row. Callers are responsible for locking and funds checks.
	AddToBalance(ctx context.Context, accountID, delta int64) (*models.Account, error)

	// RunInTx executes fn within a transaction scope. Nested calls join the
	// enclosing transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}
