package models

import (
	"strings"
	"time"

	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
)

// Agency is the role profile for a boat-operating company, tied 1:1 to an
// owning account.
//
// Invariants:
//   - AccountID is required
//   - CompanyName and TaxID are non-blank
//   - ApprovedAt is set at most once, by the approval workflow
type Agency struct {
	ID           id.AgencyID  `json:"id"`
	AccountID    id.AccountID `json:"account_id"`
	CompanyName  string       `json:"company_name"`
	TaxID        string       `json:"tax_id"`
	ContactPhone string       `json:"contact_phone"`
	FleetSize    int          `json:"fleet_size"`
	RevenueCents int64        `json:"revenue_cents"`
	ApprovedAt   *time.Time   `json:"approved_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewAgency validates and constructs an agency profile. Counters start at
// zero and ApprovedAt starts unset.
func NewAgency(agencyID id.AgencyID, accountID id.AccountID, companyName, taxID, contactPhone string, fleetSize int, now time.Time) (*Agency, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agency profile requires an owning account")
	}
	if strings.TrimSpace(companyName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agency company name cannot be blank")
	}
	if strings.TrimSpace(taxID) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agency tax id cannot be blank")
	}
	if fleetSize < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "agency fleet size cannot be negative")
	}
	return &Agency{
		ID:           agencyID,
		AccountID:    accountID,
		CompanyName:  strings.TrimSpace(companyName),
		TaxID:        strings.TrimSpace(taxID),
		ContactPhone: strings.TrimSpace(contactPhone),
		FleetSize:    fleetSize,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// IsApproved reports whether the profile has passed review.
func (a *Agency) IsApproved() bool {
	return a.ApprovedAt != nil
}

// StampApproval records the approval time. The first stamp wins, matching
// the boatman profile.
func (a *Agency) StampApproval(now time.Time) {
	if a.ApprovedAt == nil {
		t := now
		a.ApprovedAt = &t
	}
	a.UpdatedAt = now
}

// OwnerAccountID returns the account this profile cascades to.
func (a *Agency) OwnerAccountID() id.AccountID { return a.AccountID }
