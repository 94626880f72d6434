package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"marina/internal/account/models"
	id "marina/pkg/domain"
	"marina/pkg/platform/sentinel"
)

// InMemory keeps accounts in a mutex-guarded map. It backs unit tests and
// local runs; production uses the Postgres store.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
	byEmail  map[string]id.AccountID
}

// NewInMemory constructs an empty in-memory account store.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[id.AccountID]*models.Account),
		byEmail:  make(map[string]id.AccountID),
	}
}

// CreateIfEmailAvailable inserts the account unless the email (case
// insensitive) is already taken, in which case it returns ErrAlreadyUsed.
func (s *InMemory) CreateIfEmailAvailable(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(account.Email)
	if _, taken := s.byEmail[key]; taken {
		return sentinel.ErrAlreadyUsed
	}
	copied := *account
	s.accounts[account.ID] = &copied
	s.byEmail[key] = account.ID
	return nil
}

// FindByID returns a copy of the account or ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// FindByEmail returns a copy of the account matching the email
// (case insensitive) or ErrNotFound.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.accounts[accountID]
	return &copied, nil
}

// ExistsByID reports whether the account is present.
func (s *InMemory) ExistsByID(_ context.Context, accountID id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.accounts[accountID]
	return ok, nil
}

// Update overwrites an existing account or returns ErrNotFound.
func (s *InMemory) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *account
	s.accounts[account.ID] = &copied
	return nil
}

// Execute runs validate then mutate on the stored account while holding the
// write lock, so no concurrent writer can slip between the check and the
// change. Returns a copy of the mutated account.
func (s *InMemory) Execute(_ context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)
	copied := *account
	return &copied, nil
}

// List returns all accounts ordered by creation time, newest first.
func (s *InMemory) List(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		copied := *account
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
