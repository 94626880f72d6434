package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"marina/internal/account/models"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/platform/sentinel"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func (s *AccountStoreSuite) newAccount(email string) *models.Account {
	account, err := models.NewAccount(id.AccountID(uuid.New()), email, "Skipper", models.RoleBoatman, "hash", time.Now())
	s.Require().NoError(err)
	return account
}

// TestCreationAndLookups verifies the store creates and retrieves accounts.
func (s *AccountStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds account by ID", func() {
		account := s.newAccount("one@example.com")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, account))

		found, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(account.Email, found.Email)

		exists, err := s.store.ExistsByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.True(exists)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.FindByID(s.ctx, id.AccountID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		exists, err := s.store.ExistsByID(s.ctx, id.AccountID(uuid.New()))
		s.Require().NoError(err)
		s.False(exists)
	})

	s.Run("returned copies do not alias store state", func() {
		account := s.newAccount("alias@example.com")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, account))

		found, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		found.DisplayName = "Mutated"

		again, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal("Skipper", again.DisplayName)
	})
}

// TestEmailUniqueness verifies case-insensitive email uniqueness.
func (s *AccountStoreSuite) TestEmailUniqueness() {
	s.Run("rejects duplicate email", func() {
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, s.newAccount("dup@example.com")))

		err := s.store.CreateIfEmailAvailable(s.ctx, s.newAccount("dup@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("enforces case-insensitive uniqueness", func() {
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, s.newAccount("mixed@example.com")))

		err := s.store.CreateIfEmailAvailable(s.ctx, s.newAccount("MIXED@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("finds by email case-insensitively", func() {
		account := s.newAccount("find@example.com")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, account))

		found, err := s.store.FindByEmail(s.ctx, "FIND@example.com")
		s.Require().NoError(err)
		s.Equal(account.ID, found.ID)
	})
}

// TestExecute verifies the validate-then-mutate callback path.
func (s *AccountStoreSuite) TestExecute() {
	s.Run("applies the mutation when validation passes", func() {
		account := s.newAccount("exec@example.com")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, account))

		now := time.Now()
		updated, err := s.store.Execute(s.ctx, account.ID,
			func(a *models.Account) error { return a.CanChangeStatus(models.StatusApproved) },
			func(a *models.Account) { a.ApplyStatusChange(models.StatusApproved, now) },
		)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, updated.Status)

		found, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, found.Status)
	})

	s.Run("leaves state untouched when validation fails", func() {
		account := s.newAccount("reject@example.com")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, account))

		_, err := s.store.Execute(s.ctx, account.ID,
			func(a *models.Account) error { return a.CanChangeStatus(models.StatusActive) },
			func(a *models.Account) { a.ApplyStatusChange(models.StatusActive, time.Now()) },
		)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		found, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, found.Status)
	})

	s.Run("returns ErrNotFound for unknown account", func() {
		_, err := s.store.Execute(s.ctx, id.AccountID(uuid.New()),
			func(a *models.Account) error { return nil },
			func(a *models.Account) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestUpdatesAndListing verifies update persistence and list ordering.
func (s *AccountStoreSuite) TestUpdatesAndListing() {
	s.Run("persists updates", func() {
		account := s.newAccount("update@example.com")
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, account))

		account.DisplayName = "Renamed"
		s.Require().NoError(s.store.Update(s.ctx, account))

		found, err := s.store.FindByID(s.ctx, account.ID)
		s.Require().NoError(err)
		s.Equal("Renamed", found.DisplayName)
	})

	s.Run("returns ErrNotFound updating a missing account", func() {
		err := s.store.Update(s.ctx, s.newAccount("ghost@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("lists newest first", func() {
		s.store = NewInMemory()
		base := time.Now()
		older := s.newAccount("older@example.com")
		older.CreatedAt = base.Add(-time.Hour)
		newer := s.newAccount("newer@example.com")
		newer.CreatedAt = base

		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, older))
		s.Require().NoError(s.store.CreateIfEmailAvailable(s.ctx, newer))

		all, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 2)
		s.Equal(newer.ID, all[0].ID)
		s.Equal(older.ID, all[1].ID)
	})
}
