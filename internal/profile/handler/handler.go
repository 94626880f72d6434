// Package handler exposes role profile registration and lookup over HTTP.
// All routes require a bearer token.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"marina/internal/platform/middleware"
	"marina/internal/profile/models"
	"marina/internal/transport/http/shared"
	id "marina/pkg/domain"
	dErrors "marina/pkg/domain-errors"
	"marina/pkg/requestcontext"
)

// Service defines the profile operations the handler needs.
type Service interface {
	RegisterBoatman(ctx context.Context, accountID id.AccountID, licenseNo, vesselName, homePort string) (*models.Boatman, error)
	RegisterAgency(ctx context.Context, accountID id.AccountID, companyName, taxID, contactPhone string, fleetSize int) (*models.Agency, error)
	GetBoatman(ctx context.Context, boatmanID id.BoatmanID) (*models.Boatman, error)
	GetAgency(ctx context.Context, agencyID id.AgencyID) (*models.Agency, error)
	GetBoatmanByAccount(ctx context.Context, accountID id.AccountID) (*models.Boatman, error)
	GetAgencyByAccount(ctx context.Context, accountID id.AccountID) (*models.Agency, error)
}

// Handler handles profile endpoints.
type Handler struct {
	logger    *slog.Logger
	profiles  Service
	validator middleware.TokenValidator
}

// New creates a profile Handler.
func New(profiles Service, validator middleware.TokenValidator, logger *slog.Logger) *Handler {
	return &Handler{
		logger:    logger,
		profiles:  profiles,
		validator: validator,
	}
}

// Register mounts the profile routes on the router. The shared middleware
// chain lives on the root router; this group only adds the bearer guard.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(authed chi.Router) {
		authed.Use(middleware.RequireAuth(h.validator, h.logger))

		authed.Post("/profiles/boatmen", h.handleRegisterBoatman)
		authed.Post("/profiles/agencies", h.handleRegisterAgency)
		authed.Get("/profiles/boatmen/{boatmanID}", h.handleGetBoatman)
		authed.Get("/profiles/agencies/{agencyID}", h.handleGetAgency)
		authed.Get("/accounts/{accountID}/boatman", h.handleBoatmanByAccount)
		authed.Get("/accounts/{accountID}/agency", h.handleAgencyByAccount)
	})
}

type registerBoatmanRequest struct {
	AccountID  string `json:"account_id"`
	LicenseNo  string `json:"license_no"`
	VesselName string `json:"vessel_name"`
	HomePort   string `json:"home_port"`
}

func (h *Handler) handleRegisterBoatman(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerBoatmanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	accountID, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	profile, err := h.profiles.RegisterBoatman(ctx, accountID, req.LicenseNo, req.VesselName, req.HomePort)
	if err != nil {
		h.logError(ctx, "register boatman failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, profile)
}

type registerAgencyRequest struct {
	AccountID    string `json:"account_id"`
	CompanyName  string `json:"company_name"`
	TaxID        string `json:"tax_id"`
	ContactPhone string `json:"contact_phone"`
	FleetSize    int    `json:"fleet_size"`
}

func (h *Handler) handleRegisterAgency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerAgencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	accountID, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	profile, err := h.profiles.RegisterAgency(ctx, accountID, req.CompanyName, req.TaxID, req.ContactPhone, req.FleetSize)
	if err != nil {
		h.logError(ctx, "register agency failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, profile)
}

func (h *Handler) handleGetBoatman(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	boatmanID, err := id.ParseBoatmanID(chi.URLParam(r, "boatmanID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	profile, err := h.profiles.GetBoatman(ctx, boatmanID)
	if err != nil {
		h.logError(ctx, "get boatman failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleGetAgency(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agencyID, err := id.ParseAgencyID(chi.URLParam(r, "agencyID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	profile, err := h.profiles.GetAgency(ctx, agencyID)
	if err != nil {
		h.logError(ctx, "get agency failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleBoatmanByAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	profile, err := h.profiles.GetBoatmanByAccount(ctx, accountID)
	if err != nil {
		h.logError(ctx, "get boatman by account failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleAgencyByAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID, err := id.ParseAccountID(chi.URLParam(r, "accountID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	profile, err := h.profiles.GetAgencyByAccount(ctx, accountID)
	if err != nil {
		h.logError(ctx, "get agency by account failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, profile)
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
