package models

import (
	"strings"
	"time"

	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
)

// Boatman is the role profile for an individual boat operator. It is tied
// 1:1 to an owning account and carries the business data reviewed during
// onboarding.
//
// Invariants:
//   - AccountID is required
//   - LicenseNo is non-blank
//   - ApprovedAt is set at most once, by the approval workflow
type Boatman struct {
	ID         id.BoatmanID `json:"id"`
	AccountID  id.AccountID `json:"account_id"`
	LicenseNo  string       `json:"license_no"`
	VesselName string       `json:"vessel_name"`
	HomePort   string       `json:"home_port"`
	Rating     float64      `json:"rating"`
	TripCount  int          `json:"trip_count"`
	ApprovedAt *time.Time   `json:"approved_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewBoatman validates and constructs a boatman profile. Counters start at
// zero and ApprovedAt starts unset.
func NewBoatman(boatmanID id.BoatmanID, accountID id.AccountID, licenseNo, vesselName, homePort string, now time.Time) (*Boatman, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "boatman profile requires an owning account")
	}
	if strings.TrimSpace(licenseNo) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "boatman license number cannot be blank")
	}
	return &Boatman{
		ID:         boatmanID,
		AccountID:  accountID,
		LicenseNo:  strings.TrimSpace(licenseNo),
		VesselName: strings.TrimSpace(vesselName),
		HomePort:   strings.TrimSpace(homePort),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsApproved reports whether the profile has passed review.
func (b *Boatman) IsApproved() bool {
	return b.ApprovedAt != nil
}

// StampApproval records the approval time. The first stamp wins: re-approving
// an already approved profile keeps the original timestamp so the audit trail
// reflects when review actually completed.
func (b *Boatman) StampApproval(now time.Time) {
	if b.ApprovedAt == nil {
		t := now
		b.ApprovedAt = &t
	}
	b.UpdatedAt = now
}

// OwnerAccountID returns the account this profile cascades to.
func (b *Boatman) OwnerAccountID() id.AccountID { return b.AccountID }
