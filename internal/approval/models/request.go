package models

import (
	"strings"
	"time"

	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
)

// EntityKind tags which aggregate an approval request targets.
type EntityKind string

const (
	KindUser    EntityKind = "USER"
	KindBoatman EntityKind = "BOATMAN"
	KindAgency  EntityKind = "AGENCY"
)

// IsValid reports whether k is a known target kind.
func (k EntityKind) IsValid() bool {
	switch k {
	case KindUser, KindBoatman, KindAgency:
		return true
	}
	return false
}

// RequestStatus is the workflow marker on an approval request. Unlike the
// account lifecycle it is not a guarded state machine: each engine operation
// unconditionally sets its status, so any operation may follow any prior
// status. Note the asymmetry with accounts: blocking suspends the account
// but marks the request BLOCKED (the request set has no SUSPENDED state).
type RequestStatus string

const (
	RequestPending          RequestStatus = "PENDING"
	RequestMoreInfoRequired RequestStatus = "MORE_INFO_REQUIRED"
	RequestApproved         RequestStatus = "APPROVED"
	RequestActive           RequestStatus = "ACTIVE"
	RequestBlocked          RequestStatus = "BLOCKED"
)

// IsValid reports whether s is a known request status.
func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestMoreInfoRequired, RequestApproved, RequestActive, RequestBlocked:
		return true
	}
	return false
}

// Request is the workflow ticket tracking review of a target entity.
//
// Invariants:
//   - TargetKind, TargetID, and RequestType are required
//   - every field change re-stamps UpdatedAt
//   - requests are never deleted; history stays queryable
//
// A target may accumulate many historical requests. The engine does not
// enforce at-most-one-open-request per target; that remains an external
// policy choice.
type Request struct {
	ID          id.RequestID  `json:"id"`
	TargetKind  EntityKind    `json:"target_kind"`
	TargetID    string        `json:"target_id"`
	RequestType string        `json:"request_type"`
	Documents   string        `json:"documents,omitempty"`
	Status      RequestStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewRequest validates and constructs an approval request in the PENDING state.
// RequestType is free-text classification ("ONBOARDING", "KYC", ...);
// Documents is an opaque reference to supporting material and may be empty.
func NewRequest(requestID id.RequestID, kind EntityKind, targetID, requestType, documents string, now time.Time) (*Request, error) {
	if !kind.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "unknown target entity kind %q", kind)
	}
	if strings.TrimSpace(targetID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval request requires a target entity id")
	}
	if strings.TrimSpace(requestType) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "approval request type cannot be blank")
	}
	return &Request{
		ID:          requestID,
		TargetKind:  kind,
		TargetID:    strings.TrimSpace(targetID),
		RequestType: strings.TrimSpace(requestType),
		Documents:   documents,
		Status:      RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetStatus applies the workflow marker for an engine operation and
// re-stamps UpdatedAt.
func (r *Request) SetStatus(status RequestStatus, now time.Time) {
	r.Status = status
	r.UpdatedAt = now
}
