// Package memstore provides an in-memory Store implementation. It backs the
// service and API tests and doubles as a throwaway backend for local runs
// without PostgreSQL. Transactions are emulated by snapshotting state and
// restoring it when the callback fails, which preserves the all-or-nothing
// behavior the services rely on.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/skypro/simplebanking/internal/models"
	"github.com/skypro/simplebanking/internal/repository"
)

type state struct {
	users      map[int64]models.User
	accounts   map[int64]models.Account
	nextUserID int64
	nextAcctID int64
}

func (s state) clone() state {
	c := state{
		users:      make(map[int64]models.User, len(s.users)),
		accounts:   make(map[int64]models.Account, len(s.accounts)),
		nextUserID: s.nextUserID,
		nextAcctID: s.nextAcctID,
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	for id, a := range s.accounts {
		c.accounts[id] = a
	}
	return c
}

// Store is a mutex-guarded in-memory implementation of repository.Store.
type Store struct {
	mu sync.Mutex
	st state
}

var _ repository.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: state{
		users:      make(map[int64]models.User),
		accounts:   make(map[int64]models.Account),
		nextUserID: 1,
		nextAcctID: 1,
	}}
}

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createUser(user)
}

func (s *Store) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUser(id)
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserByUsername(username)
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listUsers()
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteUser(id)
}

func (s *Store) CreateAccount(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createAccount(account)
}

func (s *Store) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAccount(id)
}

func (s *Store) GetAccountForUpdate(ctx context.Context, id int64) (*models.Account, error) {
	return s.GetAccount(ctx, id)
}

func (s *Store) GetUserAccount(_ context.Context, userID, accountID int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getUserAccount(userID, accountID)
}

func (s *Store) GetUserAccountForUpdate(ctx context.Context, userID, accountID int64) (*models.Account, error) {
	return s.GetUserAccount(ctx, userID, accountID)
}

func (s *Store) ListUserAccounts(_ context.Context, userID int64) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listUserAccounts(userID)
}

func (s *Store) AddToBalance(_ context.Context, accountID, delta int64) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addToBalance(accountID, delta)
}

// RunInTx runs fn against a transactional view of the store. The whole store is
// locked for the duration, so a transaction observes and publishes state
// atomically with respect to every other caller.
func (s *Store) RunInTx(_ context.Context, fn func(tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&txStore{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// txStore is the view handed to RunInTx callbacks. It reuses the unlocked
// internals of its parent; the parent holds the mutex for the whole
// transaction, and nested RunInTx calls join the same scope.
type txStore struct {
	s *Store
}

var _ repository.Store = (*txStore)(nil)

func (t *txStore) CreateUser(_ context.Context, user *models.User) error {
	return t.s.createUser(user)
}

func (t *txStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	return t.s.getUser(id)
}

func (t *txStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return t.s.getUserByUsername(username)
}

func (t *txStore) ListUsers(_ context.Context) ([]models.User, error) {
	return t.s.listUsers()
}

func (t *txStore) DeleteUser(_ context.Context, id int64) error {
	return t.s.deleteUser(id)
}

func (t *txStore) CreateAccount(_ context.Context, account *models.Account) error {
	return t.s.createAccount(account)
}

func (t *txStore) GetAccount(_ context.Context, id int64) (*models.Account, error) {
	return t.s.getAccount(id)
}

func (t *txStore) GetAccountForUpdate(_ context.Context, id int64) (*models.Account, error) {
	return t.s.getAccount(id)
}

func (t *txStore) GetUserAccount(_ context.Context, userID, accountID int64) (*models.Account, error) {
	return t.s.getUserAccount(userID, accountID)
}

func (t *txStore) GetUserAccountForUpdate(_ context.Context, userID, accountID int64) (*models.Account, error) {
	return t.s.getUserAccount(userID, accountID)
}

func (t *txStore) ListUserAccounts(_ context.Context, userID int64) ([]models.Account, error) {
	return t.s.listUserAccounts(userID)
}

func (t *txStore) AddToBalance(_ context.Context, accountID, delta int64) (*models.Account, error) {
	return t.s.addToBalance(accountID, delta)
}

func (t *txStore) RunInTx(_ context.Context, fn func(tx repository.Store) error) error {
	return fn(t)
}

func (s *Store) createUser(user *models.User) error {
	for _, u := range s.st.users {
		if u.Username == user.Username {
			return models.ErrUsernameTaken
		}
	}
	user.ID = s.st.nextUserID
	s.st.nextUserID++
	user.CreatedAt = time.Now().UTC()

	stored := *user
	stored.Accounts = nil
	s.st.users[user.ID] = stored
	return nil
}

func (s *Store) getUser(id int64) (*models.User, error) {
	u, ok := s.st.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

func (s *Store) getUserByUsername(username string) (*models.User, error) {
	for _, u := range s.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) listUsers() ([]models.User, error) {
	var users []models.User
	for id := int64(1); id < s.st.nextUserID; id++ {
		if u, ok := s.st.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (s *Store) deleteUser(id int64) error {
	if _, ok := s.st.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.st.users, id)
	for acctID, a := range s.st.accounts {
		if a.UserID == id {
			delete(s.st.accounts, acctID)
		}
	}
	return nil
}

func (s *Store) createAccount(account *models.Account) error {
	if _, ok := s.st.users[account.UserID]; !ok {
		return models.ErrUserNotFound
	}
	account.ID = s.st.nextAcctID
	s.st.nextAcctID++
	account.CreatedAt = time.Now().UTC()
	s.st.accounts[account.ID] = *account
	return nil
}

func (s *Store) getAccount(id int64) (*models.Account, error) {
	a, ok := s.st.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

func (s *Store) getUserAccount(userID, accountID int64) (*models.Account, error) {
	a, ok := s.st.accounts[accountID]
	if !ok || a.UserID != userID {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

func (s *Store) listUserAccounts(userID int64) ([]models.Account, error) {
	var accounts []models.Account
	for id := int64(1); id < s.st.nextAcctID; id++ {
		if a, ok := s.st.accounts[id]; ok && a.UserID == userID {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

func (s *Store) addToBalance(accountID, delta int64) (*models.Account, error) {
	a, ok := s.st.accounts[accountID]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	a.Balance += delta
	s.st.accounts[accountID] = a
	return &a, nil
}
