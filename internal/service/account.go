package service

import (
	"context"

	"github.com/skypro/simplebanking/internal/domain"
	"github.com/skypro/simplebanking/internal/models"
	"github.com/skypro/simplebanking/internal/repository"
)

// AccountService owns every balance-mutation invariant. No other component
// changes an account balance.
type AccountService struct {
	store repository.Store
}

func NewAccountService(store repository.Store) *AccountService {
	return &AccountService{store: store}
}

// CreateDefaultAccounts provisions one zero-balance account per catalog
// currency for the given user. The inserts share one transaction so a user is
// never left with a partial account set.
func (s *AccountService) CreateDefaultAccounts(ctx context.Context, user *models.User) error {
	return s.store.RunInTx(ctx, func(tx repository.Store) error {
		return seedDefaultAccounts(ctx, tx, user)
	})
}

func seedDefaultAccounts(ctx context.Context, tx repository.Store, user *models.User) error {
	for _, currency := range domain.Currencies() {
		account := &models.Account{
			UserID:   user.ID,
			Currency: currency,
			Balance:  0,
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			return err
		}
		user.Accounts = append(user.Accounts, *account)
	}
	return nil
}

// GetAccount returns the account with the given id owned by userID. An id that
// exists under a different owner is indistinguishable from a missing one.
func (s *AccountService) GetAccount(ctx context.Context, userID, accountID int64) (*models.Account, error) {
	return s.store.GetUserAccount(ctx, userID, accountID)
}

// GetAccounts returns all accounts owned by userID. A user with no accounts
// yields an empty slice, not an error.
func (s *AccountService) GetAccounts(ctx context.Context, userID int64) ([]models.Account, error) {
	accounts, err := s.store.ListUserAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	return accounts, nil
}

// ValidateCurrency loads both accounts by bare id and fails with
// models.ErrWrongCurrency when their currencies differ. The accounts may belong
// to different users; src == dst trivially succeeds.
func (s *AccountService) ValidateCurrency(ctx context.Context, srcID, dstID int64) error {
	src, err := s.store.GetAccount(ctx, srcID)
	if err != nil {
		return err
	}
	if srcID == dstID {
		return nil
	}
	dst, err := s.store.GetAccount(ctx, dstID)
	if err != nil {
		return err
	}
	if src.Currency != dst.Currency {
		return models.ErrWrongCurrency
	}
	return nil
}

// Deposit increases the balance of an account owned by userID.
func (s *AccountService) Deposit(ctx context.Context, userID, accountID, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var updated *models.Account
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		if _, err := tx.GetUserAccountForUpdate(ctx, userID, accountID); err != nil {
			return err
		}
		var err error
		updated, err = tx.AddToBalance(ctx, accountID, amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Withdraw decreases the balance of an account owned by userID. The balance
// never goes negative; withdrawing the exact balance leaves zero.
func (s *AccountService) Withdraw(ctx context.Context, userID, accountID, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var updated *models.Account
	err := s.store.RunInTx(ctx, func(tx repository.Store) error {
		account, err := tx.GetUserAccountForUpdate(ctx, userID, accountID)
		if err != nil {
			return err
		}
		if account.Balance < amount {
			return models.ErrInsufficientFunds
		}
		updated, err = tx.AddToBalance(ctx, accountID, -amount)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transfer debits an account owned by userID and credits the destination,
// which may belong to anyone. Both legs commit together or not at all. Rows are
// locked in ascending id order so opposing transfers cannot deadlock.
func (s *AccountService) Transfer(ctx context.Context, userID, srcID, dstID, amount int64) error {
	if amount <= 0 {
		return models.ErrInvalidAmount
	}

	return s.store.RunInTx(ctx, func(tx repository.Store) error {
		src, dst, err := lockTransferLegs(ctx, tx, userID, srcID, dstID)
		if err != nil {
			return err
		}
		if src.Currency != dst.Currency {
			return models.ErrWrongCurrency
		}
		if src.Balance < amount {
			return models.ErrInsufficientFunds
		}
		if _, err := tx.AddToBalance(ctx, srcID, -amount); err != nil {
			return err
		}
		_, err = tx.AddToBalance(ctx, dstID, amount)
		return err
	})
}

func lockTransferLegs(ctx context.Context, tx repository.Store, userID, srcID, dstID int64) (src, dst *models.Account, err error) {
	if srcID == dstID {
		src, err = tx.GetUserAccountForUpdate(ctx, userID, srcID)
		return src, src, err
	}

	if srcID < dstID {
		src, err = tx.GetUserAccountForUpdate(ctx, userID, srcID)
		if err != nil {
			return nil, nil, err
		}
		dst, err = tx.GetAccountForUpdate(ctx, dstID)
		if err != nil {
			return nil, nil, err
		}
		return src, dst, nil
	}

	dst, err = tx.GetAccountForUpdate(ctx, dstID)
	if err != nil {
		return nil, nil, err
	}
	src, err = tx.GetUserAccountForUpdate(ctx, userID, srcID)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}
