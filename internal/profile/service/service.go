// Package service implements role profile registration. A profile is the
// business data reviewed during onboarding; each account carries at most one
// profile per role kind.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"marina/internal/audit"
	"marina/internal/profile/models"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/platform/sentinel"
	"marina/pkg/requestcontext"
)

// BoatmanStore persists boatman profiles.
type BoatmanStore interface {
	CreateIfAccountFree(ctx context.Context, profile *models.Boatman) error
	FindByID(ctx context.Context, boatmanID id.BoatmanID) (*models.Boatman, error)
	FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Boatman, error)
}

// AgencyStore persists agency profiles.
type AgencyStore interface {
	CreateIfAccountFree(ctx context.Context, profile *models.Agency) error
	FindByID(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error)
	FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Agency, error)
}

// AccountChecker verifies the owning account exists before a profile is
// registered against it.
type AccountChecker interface {
	ExistsByID(ctx context.Context, accountID id.AccountID) (bool, error)
}

// AuditPublisher records profile events for the compliance trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service provides profile registration and lookup.
type Service struct {
	boatmen        BoatmanStore
	agencies       AgencyStore
	accounts       AccountChecker
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

// Option configures optional service collaborators.
type Option func(s *Service)

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditPublisher attaches an audit sink.
func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

// New constructs the profile service.
func New(boatmen BoatmanStore, agencies AgencyStore, accounts AccountChecker, opts ...Option) *Service {
	s := &Service{boatmen: boatmen, agencies: agencies, accounts: accounts}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterBoatman creates a boatman profile for an existing account. An
// account may own at most one boatman profile.
func (s *Service) RegisterBoatman(ctx context.Context, accountID id.AccountID, licenseNo, vesselName, homePort string) (*models.Boatman, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	profile, err := models.NewBoatman(id.BoatmanID(uuid.New()), accountID, licenseNo, vesselName, homePort, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.boatmen.CreateIfAccountFree(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "account already has a boatman profile")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create boatman profile")
	}

	s.emitRegistered(ctx, profile.ID.String(), accountID, "BOATMAN")
	return profile, nil
}

// RegisterAgency creates an agency profile for an existing account. An
// account may own at most one agency profile.
func (s *Service) RegisterAgency(ctx context.Context, accountID id.AccountID, companyName, taxID, contactPhone string, fleetSize int) (*models.Agency, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	profile, err := models.NewAgency(id.AgencyID(uuid.New()), accountID, companyName, taxID, contactPhone, fleetSize, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.agencies.CreateIfAccountFree(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "account already has an agency profile")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create agency profile")
	}

	s.emitRegistered(ctx, profile.ID.String(), accountID, "AGENCY")
	return profile, nil
}

// GetBoatman returns a boatman profile by id.
func (s *Service) GetBoatman(ctx context.Context, boatmanID id.BoatmanID) (*models.Boatman, error) {
	profile, err := s.boatmen.FindByID(ctx, boatmanID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "boatman %s not found", boatmanID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load boatman profile")
	}
	return profile, nil
}

// GetAgency returns an agency profile by id.
func (s *Service) GetAgency(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error) {
	profile, err := s.agencies.FindByID(ctx, agencyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "agency %s not found", agencyID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agency profile")
	}
	return profile, nil
}

// GetBoatmanByAccount returns the boatman profile owned by an account.
func (s *Service) GetBoatmanByAccount(ctx context.Context, accountID id.AccountID) (*models.Boatman, error) {
	profile, err := s.boatmen.FindByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "account %s has no boatman profile", accountID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load boatman profile")
	}
	return profile, nil
}

// GetAgencyByAccount returns the agency profile owned by an account.
func (s *Service) GetAgencyByAccount(ctx context.Context, accountID id.AccountID) (*models.Agency, error) {
	profile, err := s.agencies.FindByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "account %s has no agency profile", accountID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load agency profile")
	}
	return profile, nil
}

func (s *Service) requireAccount(ctx context.Context, accountID id.AccountID) error {
	if accountID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "account id is required")
	}
	exists, err := s.accounts.ExistsByID(ctx, accountID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check account")
	}
	if !exists {
		return dErrors.Newf(dErrors.CodeNotFound, "account %s not found", accountID)
	}
	return nil
}

func (s *Service) emitRegistered(ctx context.Context, profileID string, accountID id.AccountID, kind string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.ActionProfileRegistered),
			"profile_id", profileID,
			"account_id", accountID.String(),
			"kind", kind,
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  audit.ActionProfileRegistered,
		Subject: profileID,
		ActorID: requestcontext.ActorID(ctx),
		Detail:  kind,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}
