package models

import (
	"net/mail"
	"strings"
	"time"

	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
)

// Role is the closed set of account roles.
type Role string

const (
	RolePassenger Role = "PASSENGER"
	RoleBoatman   Role = "BOATMAN"
	RoleAgency    Role = "AGENCY"
	RoleAdmin     Role = "ADMIN"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RolePassenger, RoleBoatman, RoleAgency, RoleAdmin:
		return true
	}
	return false
}

// Account is the aggregate root for an identity record.
//
// Invariants:
//   - Email is non-empty and RFC 5322 parseable
//   - DisplayName is non-empty
//   - Role is one of the closed role set
//   - Status only moves along the transition table (see status.go)
//   - CreatedAt is immutable after construction
//
// Accounts are never deleted by the lifecycle engine; deactivation is an
// INACTIVE status, removal is an external administrative action.
type Account struct {
	ID            id.AccountID `json:"id"`
	Email         string       `json:"email"`
	DisplayName   string       `json:"display_name"`
	Role          Role         `json:"role"`
	Status        Status       `json:"status"`
	EmailVerified bool         `json:"email_verified"`
	PasswordHash  string       `json:"-"` // Never serialize - contains bcrypt hash
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewAccount validates and constructs an account in the PENDING state.
func NewAccount(accountID id.AccountID, email, displayName string, role Role, passwordHash string, now time.Time) (*Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account email is not a valid address")
	}
	if strings.TrimSpace(displayName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account display name cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account role is invalid")
	}
	return &Account{
		ID:           accountID,
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		Role:         role,
		Status:       StatusPending,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsActive reports whether the account may currently operate.
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// CanChangeStatus checks the transition table for the requested move.
// Returns nil for a self-transition (idempotent).
// Use with ApplyStatusChange in Execute callbacks so the store holds its
// lock across validation and mutation.
func (a *Account) CanChangeStatus(target Status) error {
	if !target.IsValid() {
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown account status %q", target)
	}
	if !a.Status.CanTransitionTo(target) {
		return NewInvalidTransitionError(a.Status, target)
	}
	return nil
}

// ApplyStatusChange moves the account to target and re-stamps UpdatedAt.
// Must only be called after CanChangeStatus returns nil.
func (a *Account) ApplyStatusChange(target Status, now time.Time) {
	a.Status = target
	a.UpdatedAt = now
}

// ChangeStatus validates and applies a lifecycle move in one call.
// Prefer CanChangeStatus + ApplyStatusChange for Execute callback flows.
func (a *Account) ChangeStatus(target Status, now time.Time) error {
	if err := a.CanChangeStatus(target); err != nil {
		return err
	}
	a.ApplyStatusChange(target, now)
	return nil
}

// MarkEmailVerified records a successful email verification.
func (a *Account) MarkEmailVerified(now time.Time) {
	a.EmailVerified = true
	a.UpdatedAt = now
}
