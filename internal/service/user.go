package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/skypro/simplebanking/internal/domain"
	"github.com/skypro/simplebanking/internal/models"
	"github.com/skypro/simplebanking/internal/repository"
)

// UserService manages user lifecycle and delegates account provisioning to the
// account domain service.
type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

// CreateUser persists a new USER-role user with a bcrypt-hashed password and
// seeds the default per-currency accounts. User and accounts are created in one
// transaction.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
	}
	err = s.store.RunInTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return seedDefaultAccounts(ctx, tx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies the username/password pair. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

// ListUsers returns every user with their accounts attached.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		accounts, err := s.store.ListUserAccounts(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Accounts = accounts
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser returns a single user with accounts attached.
func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListUserAccounts(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Accounts = accounts
	return user, nil
}

// DeleteUser removes a user by id; the user's accounts go with it.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}
