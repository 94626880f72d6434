// Package service implements account registration and administration on top
// of the lifecycle status table.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	accountmetrics "marina/internal/account/metrics"
	"marina/internal/account/models"
	"marina/internal/audit"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/platform/sentinel"
	"marina/pkg/requestcontext"
)

const minPasswordLength = 8

// Store is the persistence surface the account service needs.
type Store interface {
	CreateIfEmailAvailable(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Execute(ctx context.Context, accountID id.AccountID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

// AuditPublisher records account events for the compliance trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service provides account operations.
type Service struct {
	store          Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *accountmetrics.Metrics
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

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *accountmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the account service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new account in the PENDING state. The password is
// bcrypt-hashed before the account ever reaches a store; email uniqueness is
// enforced by the store under its own lock.
func (s *Service) Register(ctx context.Context, email, displayName string, role models.Role, password string) (*models.Account, error) {
	if len(password) < minPasswordLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "password must be at least %d characters", minPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	account, err := models.NewAccount(id.AccountID(uuid.New()), email, displayName, role, string(hash), requestcontext.Now(ctx))
	if err != nil {
		// Constructor invariants become validation errors at the API edge.
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.store.CreateIfEmailAvailable(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "email is already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	s.emitAudit(ctx, audit.ActionAccountRegistered, account, string(account.Role))
	s.metrics.IncrementRegistered()
	return account, nil
}

// GetAccount returns a single account by id.
func (s *Service) GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	account, err := s.store.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "account %s not found", accountID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// GetByEmail returns the account registered under the given email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email is required")
	}
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no account registered under that email")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// VerifyEmail marks the account's email as verified. Verifying twice is a
// no-op, not an error.
func (s *Service) VerifyEmail(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	now := requestcontext.Now(ctx)
	account, err := s.store.Execute(ctx, accountID,
		func(a *models.Account) error { return nil },
		func(a *models.Account) { a.MarkEmailVerified(now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "account %s not found", accountID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify email")
	}

	s.emitAudit(ctx, audit.ActionAccountVerified, account, "")
	s.metrics.IncrementEmailsVerified()
	return account, nil
}

// ChangeStatus is the direct administrative lifecycle move. It runs the same
// transition table as the approval workflow but without a workflow ticket.
func (s *Service) ChangeStatus(ctx context.Context, accountID id.AccountID, target models.Status) (*models.Account, error) {
	if !target.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown account status %q", target)
	}
	now := requestcontext.Now(ctx)
	account, err := s.store.Execute(ctx, accountID,
		func(a *models.Account) error { return a.CanChangeStatus(target) },
		func(a *models.Account) { a.ApplyStatusChange(target, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "account %s not found", accountID)
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to change account status")
	}

	s.emitAudit(ctx, audit.ActionStatusChanged, account, string(target))
	s.metrics.IncrementStatusChange(string(target))
	return account, nil
}

// ListAccounts returns all accounts, newest first.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, account *models.Account, detail string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"account_id", account.ID.String(),
			"status", string(account.Status),
			"detail", detail,
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:  action,
		Subject: account.ID.String(),
		ActorID: requestcontext.ActorID(ctx),
		Detail:  detail,
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}
