package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
)

func newTestAccount(t *testing.T) *Account {
	t.Helper()
	account, err := NewAccount(id.AccountID(uuid.New()), "skipper@example.com", "Skipper", RoleBoatman, "hash", time.Now())
	require.NoError(t, err)
	return account
}

func TestNewAccount(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("constructs a pending account", func(t *testing.T) {
		account, err := NewAccount(id.AccountID(uuid.New()), "  skipper@example.com ", " Skipper ", RoleBoatman, "hash", now)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, account.Status)
		assert.Equal(t, "skipper@example.com", account.Email)
		assert.Equal(t, "Skipper", account.DisplayName)
		assert.False(t, account.EmailVerified)
		assert.Equal(t, now, account.CreatedAt)
		assert.Equal(t, now, account.UpdatedAt)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		cases := []struct {
			name        string
			email       string
			displayName string
			role        Role
		}{
			{"empty email", "", "Skipper", RoleBoatman},
			{"malformed email", "not-an-address", "Skipper", RoleBoatman},
			{"empty display name", "skipper@example.com", "  ", RoleBoatman},
			{"unknown role", "skipper@example.com", "Skipper", Role("CAPTAIN")},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewAccount(id.AccountID(uuid.New()), tc.email, tc.displayName, tc.role, "hash", now)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			})
		}
	})
}

func TestChangeStatus(t *testing.T) {
	t.Run("walks the happy path", func(t *testing.T) {
		account := newTestAccount(t)
		now := time.Now()

		require.NoError(t, account.ChangeStatus(StatusApproved, now))
		require.NoError(t, account.ChangeStatus(StatusActive, now))
		assert.True(t, account.IsActive())
		require.NoError(t, account.ChangeStatus(StatusSuspended, now))
		require.NoError(t, account.ChangeStatus(StatusActive, now))
		require.NoError(t, account.ChangeStatus(StatusInactive, now))
		require.NoError(t, account.ChangeStatus(StatusPending, now))
	})

	t.Run("rejects an illegal jump and leaves the account unchanged", func(t *testing.T) {
		account := newTestAccount(t)
		before := account.UpdatedAt

		err := account.ChangeStatus(StatusActive, time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		assert.Equal(t, StatusPending, account.Status)
		assert.Equal(t, before, account.UpdatedAt)
	})

	t.Run("active account cannot go back to pending", func(t *testing.T) {
		account := newTestAccount(t)
		now := time.Now()
		require.NoError(t, account.ChangeStatus(StatusApproved, now))
		require.NoError(t, account.ChangeStatus(StatusActive, now))

		err := account.ChangeStatus(StatusPending, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	t.Run("self-transition is an idempotent no-op", func(t *testing.T) {
		account := newTestAccount(t)
		later := account.UpdatedAt.Add(time.Hour)

		require.NoError(t, account.ChangeStatus(StatusPending, later))
		assert.Equal(t, StatusPending, account.Status)
		assert.Equal(t, later, account.UpdatedAt)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		account := newTestAccount(t)
		err := account.ChangeStatus(Status("DELETED"), time.Now())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestMarkEmailVerified(t *testing.T) {
	account := newTestAccount(t)
	now := account.UpdatedAt.Add(time.Minute)

	account.MarkEmailVerified(now)
	assert.True(t, account.EmailVerified)
	assert.Equal(t, now, account.UpdatedAt)
}
