package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skypro/simplebanking/internal/domain"
	"github.com/skypro/simplebanking/internal/models"
	"github.com/skypro/simplebanking/internal/repository"
)

func seedUserWithAccount(t *testing.T, s *Store) (*models.User, *models.Account) {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Username: "alice", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, s.CreateUser(ctx, user))

	account := &models.Account{UserID: user.ID, Currency: domain.USD}
	require.NoError(t, s.CreateAccount(ctx, account))
	return user, account
}

func TestCompoundUserAccountLookup(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, account := seedUserWithAccount(t, s)

	got, err := s.GetUserAccount(ctx, user.ID, account.ID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, got.ID)

	_, err = s.GetUserAccount(ctx, user.ID+1, account.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestAddToBalance(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, account := seedUserWithAccount(t, s)

	updated, err := s.AddToBalance(ctx, account.ID, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(25), updated.Balance)

	updated, err = s.AddToBalance(ctx, account.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), updated.Balance)

	_, err = s.AddToBalance(ctx, 9999, 1)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, account := seedUserWithAccount(t, s)

	boom := errors.New("boom")
	err := s.RunInTx(ctx, func(tx repository.Store) error {
		if _, err := tx.AddToBalance(ctx, account.ID, 100); err != nil {
			return err
		}
		second := &models.Account{UserID: user.ID, Currency: domain.EUR}
		if err := tx.CreateAccount(ctx, second); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Balance)

	accounts, err := s.ListUserAccounts(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestRunInTxCommits(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, account := seedUserWithAccount(t, s)

	err := s.RunInTx(ctx, func(tx repository.Store) error {
		// Nested transactions join the enclosing scope.
		return tx.RunInTx(ctx, func(inner repository.Store) error {
			_, err := inner.AddToBalance(ctx, account.ID, 7)
			return err
		})
	})
	require.NoError(t, err)

	got, err := s.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.Balance)
}

func TestDeleteUserRemovesAccounts(t *testing.T) {
	s := New()
	ctx := context.Background()
	user, account := seedUserWithAccount(t, s)

	require.NoError(t, s.DeleteUser(ctx, user.ID))

	_, err := s.GetAccount(ctx, account.ID)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
	assert.ErrorIs(t, s.DeleteUser(ctx, user.ID), models.ErrUserNotFound)
}
