// Package resolver maps an (entity kind, entity id) pair from an approval
// request onto the concrete aggregate it targets. It is the only place that
// knows the target of an approval is one of three unrelated storage-backed
// aggregates; the lifecycle service works against the Target union.
package resolver

import (
	"context"
	"errors"

	accountmodels "marina/internal/account/models"
	"marina/internal/approval/models"
	profilemodels "marina/internal/profile/models"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/platform/sentinel"
)

// Target is the closed union of approval targets. Every member exposes the
// one capability the lifecycle engine needs: the account its status cascades
// to.
type Target interface {
	Kind() models.EntityKind
	OwnerAccountID() id.AccountID
}

// AccountTarget wraps an account targeted directly (kind USER).
type AccountTarget struct {
	Account *accountmodels.Account
}

func (t AccountTarget) Kind() models.EntityKind      { return models.KindUser }
func (t AccountTarget) OwnerAccountID() id.AccountID { return t.Account.ID }

// BoatmanTarget wraps a boatman profile (kind BOATMAN).
type BoatmanTarget struct {
	Profile *profilemodels.Boatman
}

func (t BoatmanTarget) Kind() models.EntityKind      { return models.KindBoatman }
func (t BoatmanTarget) OwnerAccountID() id.AccountID { return t.Profile.AccountID }

// AgencyTarget wraps an agency profile (kind AGENCY).
type AgencyTarget struct {
	Profile *profilemodels.Agency
}

func (t AgencyTarget) Kind() models.EntityKind      { return models.KindAgency }
func (t AgencyTarget) OwnerAccountID() id.AccountID { return t.Profile.AccountID }

// Store interfaces are declared here, consumer-side; the memory and Postgres
// stores satisfy them.
type AccountStore interface {
	FindByID(ctx context.Context, accountID id.AccountID) (*accountmodels.Account, error)
}

type BoatmanStore interface {
	FindByID(ctx context.Context, boatmanID id.BoatmanID) (*profilemodels.Boatman, error)
}

type AgencyStore interface {
	FindByID(ctx context.Context, agencyID id.AgencyID) (*profilemodels.Agency, error)
}

// Resolver fetches the concrete target entity for an approval request.
type Resolver struct {
	accounts AccountStore
	boatmen  BoatmanStore
	agencies AgencyStore
}

// New constructs a resolver over the three aggregate stores.
func New(accounts AccountStore, boatmen BoatmanStore, agencies AgencyStore) *Resolver {
	return &Resolver{accounts: accounts, boatmen: boatmen, agencies: agencies}
}

// Resolve fetches the entity for (kind, targetID) and asserts it exists.
// An unknown kind is a validation failure; a missing entity is a coded
// NotFound carrying kind and id.
func (r *Resolver) Resolve(ctx context.Context, kind models.EntityKind, targetID string) (Target, error) {
	switch kind {
	case models.KindUser:
		accountID, err := id.ParseAccountID(targetID)
		if err != nil {
			return nil, err
		}
		account, err := r.accounts.FindByID(ctx, accountID)
		if err != nil {
			return nil, notFound(err, kind, targetID, "load account")
		}
		return AccountTarget{Account: account}, nil

	case models.KindBoatman:
		boatmanID, err := id.ParseBoatmanID(targetID)
		if err != nil {
			return nil, err
		}
		profile, err := r.boatmen.FindByID(ctx, boatmanID)
		if err != nil {
			return nil, notFound(err, kind, targetID, "load boatman profile")
		}
		return BoatmanTarget{Profile: profile}, nil

	case models.KindAgency:
		agencyID, err := id.ParseAgencyID(targetID)
		if err != nil {
			return nil, err
		}
		profile, err := r.agencies.FindByID(ctx, agencyID)
		if err != nil {
			return nil, notFound(err, kind, targetID, "load agency profile")
		}
		return AgencyTarget{Profile: profile}, nil

	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown target entity kind %q", kind)
	}
}

func notFound(err error, kind models.EntityKind, targetID, op string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Newf(dErrors.CodeNotFound, "%s %s not found", kind, targetID)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to "+op)
}
