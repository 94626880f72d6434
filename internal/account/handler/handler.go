// Package handler exposes account registration and administration over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"marina/internal/account/models"
	"marina/internal/platform/middleware"
	"marina/internal/transport/http/shared"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/requestcontext"
)

// Service defines the account operations the handler needs.
type Service interface {
	Register(ctx context.Context, email, displayName string, role models.Role, password string) (*models.Account, error)
	GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	VerifyEmail(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	ChangeStatus(ctx context.Context, accountID id.AccountID, target models.Status) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
}

// Handler handles account endpoints.
type Handler struct {
	logger     *slog.Logger
	accounts   Service
	adminToken string
	validator  middleware.TokenValidator
}

// New creates an account Handler.
func New(accounts Service, adminToken string, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:     logger,
		accounts:   accounts,
		adminToken: adminToken,
		validator:  validator,
	}
}

// Register mounts the account routes. Registration is public, /me requires a
// bearer token, everything else sits behind the admin token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/accounts", h.handleRegister)

	r.Group(func(self chi.Router) {
		self.Use(middleware.RequireAuth(h.validator, h.logger))
		self.Get("/me", h.handleMe)
	})

	r.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdminToken(h.adminToken, h.logger))
		admin.Get("/accounts", h.handleList)
		admin.Get("/accounts/{accountID}", h.handleGet)
		admin.Post("/accounts/{accountID}/verify-email", h.handleVerifyEmail)
		admin.Post("/accounts/{accountID}/status", h.handleChangeStatus)
	})
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Password    string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid register request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.accounts.Register(ctx, req.Email, req.DisplayName, models.Role(req.Role), req.Password)
	if err != nil {
		h.logError(ctx, "register account failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, account)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(requestcontext.ActorID(ctx))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token does not identify an account"))
		return
	}
	account, err := h.accounts.GetAccount(ctx, accountID)
	if err != nil {
		h.logError(ctx, "get own account failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	account, err := h.accounts.GetAccount(ctx, accountID)
	if err != nil {
		h.logError(ctx, "get account failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accounts, err := h.accounts.ListAccounts(ctx)
	if err != nil {
		h.logError(ctx, "list accounts failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	account, err := h.accounts.VerifyEmail(ctx, accountID)
	if err != nil {
		h.logError(ctx, "verify email failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	account, err := h.accounts.ChangeStatus(ctx, accountID, models.Status(req.Status))
	if err != nil {
		h.logError(ctx, "change account status failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, account)
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
