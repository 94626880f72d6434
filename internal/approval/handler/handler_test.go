package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accountmodels "marina/internal/account/models"
	accountstore "marina/internal/account/store"
	"marina/internal/approval/models"
	"marina/internal/approval/resolver"
	"marina/internal/approval/service"
	approvalstore "marina/internal/approval/store"
	profilestore "marina/internal/profile/store"
	id "marina/pkg/domain"
)

const adminToken = "test-admin-token"

type testEnv struct {
	router   http.Handler
	accounts *accountstore.InMemory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	accounts := accountstore.NewInMemory()
	boatmen := profilestore.NewInMemoryBoatman()
	agencies := profilestore.NewInMemoryAgency()
	requests := approvalstore.NewInMemory()

	svc := service.New(requests, accounts, boatmen, agencies, resolver.New(accounts, boatmen, agencies))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(svc, adminToken, logger).Register(r)
	return &testEnv{router: r, accounts: accounts}
}

func (e *testEnv) addAccount(t *testing.T) *accountmodels.Account {
	t.Helper()
	account, err := accountmodels.NewAccount(id.AccountID(uuid.New()), uuid.NewString()+"@example.com", "Skipper", accountmodels.RoleBoatman, "hash", time.Now())
	require.NoError(t, err)
	require.NoError(t, e.accounts.CreateIfEmailAvailable(context.Background(), account))
	return account
}

func (e *testEnv) do(t *testing.T, method, path string, body any, withToken bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withToken {
		req.Header.Set("X-Admin-Token", adminToken)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) createApproval(t *testing.T, targetID string) models.Request {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/approvals", map[string]string{
		"target_kind":  "USER",
		"target_id":    targetID,
		"request_type": "ONBOARDING",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var request models.Request
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&request))
	return request
}

func TestAdminTokenRequired(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/approvals", nil, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateApprovalEndpoint(t *testing.T) {
	env := newTestEnv(t)
	account := env.addAccount(t)

	t.Run("creates a pending request", func(t *testing.T) {
		request := env.createApproval(t, account.ID.String())
		assert.Equal(t, models.RequestPending, request.Status)
		assert.Equal(t, account.ID.String(), request.TargetID)
	})

	t.Run("unknown target maps to 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/approvals", map[string]string{
			"target_kind":  "USER",
			"target_id":    uuid.NewString(),
			"request_type": "ONBOARDING",
		}, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad kind maps to 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/approvals", map[string]string{
			"target_kind":  "VESSEL",
			"target_id":    account.ID.String(),
			"request_type": "ONBOARDING",
		}, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/approvals", bytes.NewReader([]byte("{not json")))
		req.Header.Set("X-Admin-Token", adminToken)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApprovalLifecycleViaHTTP(t *testing.T) {
	env := newTestEnv(t)
	account := env.addAccount(t)
	request := env.createApproval(t, account.ID.String())

	approveRec := env.do(t, http.MethodPost, "/approvals/"+request.ID.String()+"/approve", nil, true)
	require.Equal(t, http.StatusOK, approveRec.Code, approveRec.Body.String())

	var approved models.Request
	require.NoError(t, json.NewDecoder(approveRec.Body).Decode(&approved))
	assert.Equal(t, models.RequestApproved, approved.Status)

	activateRec := env.do(t, http.MethodPost, "/approvals/"+request.ID.String()+"/activate", nil, true)
	require.Equal(t, http.StatusOK, activateRec.Code)

	t.Run("illegal transition maps to 409", func(t *testing.T) {
		// Account is now ACTIVE; re-approving would need ACTIVE -> APPROVED.
		rec := env.do(t, http.MethodPost, "/approvals/"+request.ID.String()+"/approve", nil, true)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown request maps to 404", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/approvals/"+uuid.NewString()+"/block", nil, true)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed request id maps to 400", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/approvals/not-a-uuid/unblock", nil, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListAndSearchEndpoints(t *testing.T) {
	env := newTestEnv(t)
	account := env.addAccount(t)
	env.createApproval(t, account.ID.String())
	env.createApproval(t, account.ID.String())

	t.Run("lists requests", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/approvals", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Requests []models.Request `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Len(t, body.Requests, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/approvals?status=BLOCKED", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Requests []models.Request `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Empty(t, body.Requests)
	})

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/approvals?status=NOPE", nil, true)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("search paginates", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/approvals/search?page=1&per_page=1", nil, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var body service.SearchResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, 2, body.Total)
		assert.Len(t, body.Requests, 1)
	})
}
