// Package handler exposes the approval workflow over HTTP. All routes are
// administrative and sit behind the admin token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"marina/internal/approval/models"
	"marina/internal/approval/service"
	"marina/internal/platform/middleware"
	"marina/internal/transport/http/shared"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/requestcontext"
)

// Service defines the workflow operations the handler needs.
type Service interface {
	CreateApproval(ctx context.Context, kind models.EntityKind, targetID, requestType, documents string) (*models.Request, error)
	Approve(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	Activate(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	Block(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	Unblock(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	RequestMoreInfo(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	GetApproval(ctx context.Context, requestID id.RequestID) (*models.Request, error)
	ListApprovals(ctx context.Context, status *models.RequestStatus) ([]*models.Request, error)
	SearchApprovals(ctx context.Context, status *models.RequestStatus, page, perPage int) (*service.SearchResult, error)
}

// Handler handles approval workflow endpoints.
type Handler struct {
	logger     *slog.Logger
	approvals  Service
	adminToken string
}

// New creates an approval Handler.
func New(approvals Service, adminToken string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		approvals:  approvals,
		adminToken: adminToken,
	}
}

// Register mounts the approval routes on the router. The shared middleware
// chain lives on the root router; this group only adds the admin guard.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.adminToken, h.logger))

		admin.Post("/approvals", h.handleCreate)
		admin.Get("/approvals", h.handleList)
		admin.Get("/approvals/search", h.handleSearch)
		admin.Get("/approvals/{requestID}", h.handleGet)
		admin.Post("/approvals/{requestID}/approve", h.transitionHandler(h.approvals.Approve))
		admin.Post("/approvals/{requestID}/activate", h.transitionHandler(h.approvals.Activate))
		admin.Post("/approvals/{requestID}/block", h.transitionHandler(h.approvals.Block))
		admin.Post("/approvals/{requestID}/unblock", h.transitionHandler(h.approvals.Unblock))
		admin.Post("/approvals/{requestID}/request-more-info", h.transitionHandler(h.approvals.RequestMoreInfo))
	})
}

type createRequest struct {
	TargetKind  string `json:"target_kind"`
	TargetID    string `json:"target_id"`
	RequestType string `json:"request_type"`
	Documents   string `json:"documents"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid create approval request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	request, err := h.approvals.CreateApproval(ctx, models.EntityKind(req.TargetKind), req.TargetID, req.RequestType, req.Documents)
	if err != nil {
		h.logError(ctx, "create approval failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, request)
}

// transitionHandler adapts one workflow operation into an HTTP handler; all
// five transitions share the same shape.
func (h *Handler) transitionHandler(op func(ctx context.Context, requestID id.RequestID) (*models.Request, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		request, err := op(ctx, requestID)
		if err != nil {
			h.logError(ctx, "approval transition failed", err)
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, request)
	}
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	request, err := h.approvals.GetApproval(ctx, requestID)
	if err != nil {
		h.logError(ctx, "get approval failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, request)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := statusFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	requests, err := h.approvals.ListApprovals(ctx, status)
	if err != nil {
		h.logError(ctx, "list approvals failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := statusFilter(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	result, err := h.approvals.SearchApprovals(ctx, status, page, perPage)
	if err != nil {
		h.logError(ctx, "search approvals failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

func statusFilter(r *http.Request) (*models.RequestStatus, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, nil
	}
	status := models.RequestStatus(raw)
	if !status.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown request status %q", raw)
	}
	return &status, nil
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.HasCode(err, dErrors.CodeInternal) {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err.Error(),
	)
}
