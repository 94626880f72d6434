package models

import (
	dErrors "marina/pkg/domain-errors"
)

// Status is the account lifecycle state. Accounts start PENDING at
// registration and only move along the transition table below.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusInactive  Status = "INACTIVE"
)

// statusTransitions is the full set of legal lifecycle moves.
// The key is the current status, the value the allowed targets.
// Self-transitions are permitted everywhere (idempotent no-op) and are
// handled in CanTransitionTo rather than listed per row.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusInactive},
	StatusApproved:  {StatusActive, StatusInactive},
	StatusActive:    {StatusSuspended, StatusInactive},
	StatusSuspended: {StatusActive, StatusInactive},
	StatusInactive:  {StatusPending},
}

// IsValid reports whether s is one of the five lifecycle states.
func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether the table permits moving from s to target.
func (s Status) CanTransitionTo(target Status) bool {
	if s == target {
		return true
	}
	allowed, ok := statusTransitions[s]
	if !ok {
		return false
	}
	for _, next := range allowed {
		if next == target {
			return true
		}
	}
	return false
}

// NewInvalidTransitionError builds the coded error for an illegal lifecycle
// jump, carrying both sides so the boundary can render an actionable message.
func NewInvalidTransitionError(current, requested Status) error {
	return dErrors.Newf(dErrors.CodeInvariantViolation,
		"account status cannot transition from %s to %s", current, requested)
}
