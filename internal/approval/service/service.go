// Package service implements the approval lifecycle engine: the workflow
// that gates whether an account may operate. Each operation loads the
// workflow ticket, resolves its target entity, validates the status move
// against the account transition table, and persists ticket and target
// together or not at all.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	accountmodels "marina/internal/account/models"
	approvalmetrics "marina/internal/approval/metrics"
	"marina/internal/approval/models"
	"marina/internal/approval/resolver"
	"marina/internal/audit"
	profilemodels "marina/internal/profile/models"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/platform/sentinel"
	"marina/pkg/requestcontext"
)

// RequestStore persists approval requests.
type RequestStore interface {
	Create(ctx context.Context, request *models.Request) error
	FindByID(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	Update(ctx context.Context, request *models.Request) error
	List(ctx context.Context, status *models.RequestStatus) ([]*models.Request, error)
	Search(ctx context.Context, status *models.RequestStatus, page, perPage int) ([]*models.Request, int, error)
}

// AccountStore is the slice of the account store the engine cascades
// through. Execute holds the store's lock (mutex or FOR UPDATE) across
// validation and mutation.
type AccountStore interface {
	Execute(ctx context.Context, accountID id.AccountID, validate func(*accountmodels.Account) error, mutate func(*accountmodels.Account)) (*accountmodels.Account, error)
}

// BoatmanStore is the slice of the boatman store the engine stamps through.
type BoatmanStore interface {
	Update(ctx context.Context, profile *profilemodels.Boatman) error
}

// AgencyStore is the slice of the agency store the engine stamps through.
type AgencyStore interface {
	Update(ctx context.Context, profile *profilemodels.Agency) error
}

// TargetResolver fetches the concrete entity an approval request targets.
type TargetResolver interface {
	Resolve(ctx context.Context, kind models.EntityKind, targetID string) (resolver.Target, error)
}

// AuditPublisher records lifecycle events for the compliance trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the approval workflow.
type Service struct {
	requests       RequestStore
	accounts       AccountStore
	boatmen        BoatmanStore
	agencies       AgencyStore
	resolver       TargetResolver
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *approvalmetrics.Metrics
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
func WithMetrics(m *approvalmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithStoreTx attaches a transactional runner; without it operations run
// non-transactionally against in-memory stores.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// New constructs the lifecycle engine.
func New(requests RequestStore, accounts AccountStore, boatmen BoatmanStore, agencies AgencyStore, res TargetResolver, opts ...Option) *Service {
	s := &Service{
		requests: requests,
		accounts: accounts,
		boatmen:  boatmen,
		agencies: agencies,
		resolver: res,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = newInMemoryStoreTx()
	}
	return s
}

// CreateApproval opens a new workflow ticket for the given target entity.
// The target must exist; nothing is persisted when it does not.
func (s *Service) CreateApproval(ctx context.Context, kind models.EntityKind, targetID, requestType, documents string) (*models.Request, error) {
	targetID = strings.TrimSpace(targetID)
	requestType = strings.TrimSpace(requestType)
	if !kind.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown target entity kind %q", kind)
	}
	if targetID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "target entity id is required")
	}
	if requestType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "request type is required")
	}

	if _, err := s.resolver.Resolve(ctx, kind, targetID); err != nil {
		return nil, err
	}

	request, err := models.NewRequest(id.RequestID(uuid.New()), kind, targetID, requestType, documents, requestcontext.Now(ctx))
	if err != nil {
		// Constructor invariants become validation errors at the API edge.
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	if err := s.requests.Create(ctx, request); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "approval request id already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create approval request")
	}

	s.emitAudit(ctx, audit.ActionApprovalCreated, request, "")
	if s.metrics != nil {
		s.metrics.RequestsCreated.Inc()
	}
	return request, nil
}

// Approve marks the request approved. For profile targets it stamps the
// profile's ApprovedAt and cascades the owning account to APPROVED; for
// USER targets it cascades the account directly.
func (s *Service) Approve(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	return s.transition(ctx, requestID, accountmodels.StatusApproved, models.RequestApproved, true, audit.ActionApprovalApproved)
}

// Activate cascades the owning account to ACTIVE and marks the request ACTIVE.
func (s *Service) Activate(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	return s.transition(ctx, requestID, accountmodels.StatusActive, models.RequestActive, false, audit.ActionApprovalActivated)
}

// Block cascades the owning account to SUSPENDED and marks the request
// BLOCKED. The naming asymmetry is deliberate: the request status set has no
// SUSPENDED state.
func (s *Service) Block(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	return s.transition(ctx, requestID, accountmodels.StatusSuspended, models.RequestBlocked, false, audit.ActionApprovalBlocked)
}

// Unblock cascades the owning account back to ACTIVE and marks the request ACTIVE.
func (s *Service) Unblock(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	return s.transition(ctx, requestID, accountmodels.StatusActive, models.RequestActive, false, audit.ActionApprovalUnblocked)
}

// RequestMoreInfo marks the request MORE_INFO_REQUIRED. The target entity is
// untouched: its documents are presumed incomplete, so no status promotion
// happens.
func (s *Service) RequestMoreInfo(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	start := time.Now()
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	request.SetStatus(models.RequestMoreInfoRequired, requestcontext.Now(ctx))
	if err := s.requests.Update(ctx, request); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update approval request")
	}

	s.emitAudit(ctx, audit.ActionApprovalMoreInfo, request, "")
	if s.metrics != nil {
		s.metrics.MoreInfoRequested.Inc()
		s.metrics.ObserveOperation(start)
	}
	return request, nil
}

// transition is the shared write path for approve/activate/block/unblock:
// one transaction covering the account cascade, the optional profile stamp,
// and the request update. Validation happens before the first write, so a
// rejected move leaves no partial state even on the in-memory stores.
func (s *Service) transition(ctx context.Context, requestID id.RequestID, accountStatus accountmodels.Status, requestStatus models.RequestStatus, stampProfile bool, action audit.Action) (*models.Request, error) {
	start := time.Now()
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var cascadedTo string
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		target, err := s.resolver.Resolve(txCtx, request.TargetKind, request.TargetID)
		if err != nil {
			return err
		}
		now := requestcontext.Now(txCtx)

		account, err := s.cascadeAccount(txCtx, target, accountStatus, now)
		if err != nil {
			return err
		}
		cascadedTo = account.ID.String()

		if stampProfile {
			if err := s.stampProfileApproval(txCtx, target, now); err != nil {
				return err
			}
		}

		request.SetStatus(requestStatus, now)
		if err := s.requests.Update(txCtx, request); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update approval request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, action, request, cascadedTo)
	s.countTransition(action)
	if s.metrics != nil {
		s.metrics.ObserveOperation(start)
	}
	return request, nil
}

// cascadeAccount moves the target's owning account along the transition
// table under the store's lock.
func (s *Service) cascadeAccount(ctx context.Context, target resolver.Target, status accountmodels.Status, now time.Time) (*accountmodels.Account, error) {
	account, err := s.accounts.Execute(ctx, target.OwnerAccountID(),
		func(a *accountmodels.Account) error {
			return a.CanChangeStatus(status)
		},
		func(a *accountmodels.Account) {
			a.ApplyStatusChange(status, now)
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "account %s not found", target.OwnerAccountID())
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to change account status")
	}
	return account, nil
}

// stampProfileApproval sets ApprovedAt on profile targets. Only Approve
// calls this; activate/block/unblock never touch the profile.
func (s *Service) stampProfileApproval(ctx context.Context, target resolver.Target, now time.Time) error {
	switch t := target.(type) {
	case resolver.BoatmanTarget:
		t.Profile.StampApproval(now)
		if err := s.boatmen.Update(ctx, t.Profile); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update boatman profile")
		}
	case resolver.AgencyTarget:
		t.Profile.StampApproval(now)
		if err := s.agencies.Update(ctx, t.Profile); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update agency profile")
		}
	case resolver.AccountTarget:
		// Accounts have no profile to stamp.
	}
	return nil
}

// ListApprovals returns requests newest first, optionally filtered by status.
func (s *Service) ListApprovals(ctx context.Context, status *models.RequestStatus) ([]*models.Request, error) {
	if status != nil && !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown request status %q", *status)
	}
	requests, err := s.requests.List(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list approval requests")
	}
	return requests, nil
}

// SearchResult is one page of approval requests.
type SearchResult struct {
	Requests []*models.Request `json:"requests"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	PerPage  int               `json:"per_page"`
}

// SearchApprovals returns one page of requests, newest first. Page defaults
// to 1 and perPage to 20, capped at 100.
func (s *Service) SearchApprovals(ctx context.Context, status *models.RequestStatus, page, perPage int) (*SearchResult, error) {
	if status != nil && !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown request status %q", *status)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	requests, total, err := s.requests.Search(ctx, status, page, perPage)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search approval requests")
	}
	return &SearchResult{Requests: requests, Total: total, Page: page, PerPage: perPage}, nil
}

// GetApproval returns a single request by id.
func (s *Service) GetApproval(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	return s.loadRequest(ctx, requestID)
}

func (s *Service) loadRequest(ctx context.Context, requestID id.RequestID) (*models.Request, error) {
	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "approval request %s not found", requestID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approval request")
	}
	return request, nil
}

func (s *Service) emitAudit(ctx context.Context, action audit.Action, request *models.Request, cascadedTo string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"request_id", request.ID.String(),
			"target_kind", string(request.TargetKind),
			"target_id", request.TargetID,
			"request_status", string(request.Status),
			"cascaded_account", cascadedTo,
			"log_type", "audit",
		)
	}
	if s.auditPublisher == nil {
		return
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:    action,
		Subject:   request.TargetID,
		ActorID:   requestcontext.ActorID(ctx),
		Detail:    string(request.Status),
		RequestID: request.ID.String(),
	})
	if err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "error", err)
	}
}

func (s *Service) countTransition(action audit.Action) {
	if s.metrics == nil {
		return
	}
	switch action {
	case audit.ActionApprovalApproved:
		s.metrics.Approved.Inc()
	case audit.ActionApprovalActivated:
		s.metrics.Activated.Inc()
	case audit.ActionApprovalBlocked:
		s.metrics.Blocked.Inc()
	case audit.ActionApprovalUnblocked:
		s.metrics.Unblocked.Inc()
	}
}
