package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"movie-api/internal/middleware"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func planRequest(method string, id string, body string) *http.Request {
	req := httptest.NewRequest(method, "/admin/accounts/"+id+"/plan", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), middleware.AdminContextKey, "ops@example.com"))
	return mux.SetURLVars(req, map[string]string{"id": id})
}

func TestSetPlanUsesTierDefaultCeiling(t *testing.T) {
	plans := &stubPlans{}
	h := NewAdminHandler(plans, nil, nil)
	accountID := uuid.New()

	rec := httptest.NewRecorder()
	h.SetPlan(rec, planRequest(http.MethodPut, accountID.String(), `{"tier":"elevated"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, plans.calls, 1)
	assert.Equal(t, planCall{accountID: accountID, tier: models.TierElevated, ceiling: 500, source: "admin:ops@example.com"}, plans.calls[0])
}

func TestSetPlanExplicitCeiling(t *testing.T) {
	plans := &stubPlans{}
	h := NewAdminHandler(plans, nil, nil)

	rec := httptest.NewRecorder()
	h.SetPlan(rec, planRequest(http.MethodPut, uuid.NewString(), `{"tier":"elevated","daily_ceiling":2000}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2000, decodeBody(t, rec)["daily_ceiling"])
}

func TestSetPlanErrors(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		body       string
		err        error
		wantStatus int
	}{
		{"bad id", "42", `{"tier":"elevated"}`, nil, http.StatusBadRequest},
		{"bad body", uuid.NewString(), `tier=elevated`, nil, http.StatusBadRequest},
		{"invalid tier", uuid.NewString(), `{"tier":"gold"}`, apperrors.Invalid("tier must be standard or elevated"), http.StatusBadRequest},
		{"unknown account", uuid.NewString(), `{"tier":"elevated"}`, apperrors.ErrNotFound, http.StatusNotFound},
		{"store down", uuid.NewString(), `{"tier":"elevated"}`, apperrors.Infra(assert.AnError, "db"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAdminHandler(&stubPlans{err: tt.err}, nil, nil)

			rec := httptest.NewRecorder()
			h.SetPlan(rec, planRequest(http.MethodPut, tt.id, tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGetPlan(t *testing.T) {
	h := NewAdminHandler(&stubPlans{}, nil, nil)
	accountID := uuid.New()

	rec := httptest.NewRecorder()
	h.GetPlan(rec, planRequest(http.MethodGet, accountID.String(), ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, accountID.String(), body["account_id"])
	assert.EqualValues(t, 100, body["daily_ceiling"])
}

func TestGetStats(t *testing.T) {
	stats := &stubStats{totals: map[string]int64{"allowed": 10, "quota_exceeded": 2}}
	h := NewAdminHandler(&stubPlans{}, stats, nil)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/admin/stats/2026-03-04", nil), map[string]string{"date": "2026-03-04"})
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-03-04", stats.day.Format("2006-01-02"))
	totals := decodeBody(t, rec)["totals"].(map[string]interface{})
	assert.EqualValues(t, 10, totals["allowed"])
}

func TestGetStatsWithoutRedis(t *testing.T) {
	h := NewAdminHandler(&stubPlans{}, nil, nil)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/admin/stats/2026-03-04", nil), map[string]string{"date": "2026-03-04"})
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetStatsBadDate(t *testing.T) {
	h := NewAdminHandler(&stubPlans{}, &stubStats{}, nil)

	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/admin/stats/yesterday", nil), map[string]string{"date": "yesterday"})
	rec := httptest.NewRecorder()
	h.GetStats(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAuditLogs(t *testing.T) {
	audit := &stubAudit{logs: []models.AuditLog{{ID: 1, Actor: "stripe", Action: "plan.change"}}}
	h := NewAdminHandler(&stubPlans{}, nil, audit)

	rec := httptest.NewRecorder()
	h.ListAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/admin/audit-logs?page=3&page_size=5", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, audit.page)
	assert.Equal(t, 5, audit.perPage)
	body := decodeBody(t, rec)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["logs"], 1)
}

func TestListAuditLogsDefaultsAndErrors(t *testing.T) {
	audit := &stubAudit{}
	h := NewAdminHandler(&stubPlans{}, nil, audit)

	rec := httptest.NewRecorder()
	h.ListAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/admin/audit-logs", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, audit.page)
	assert.Equal(t, 20, audit.perPage)
	assert.Len(t, decodeBody(t, rec)["logs"], 0)

	rec = httptest.NewRecorder()
	h.ListAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/admin/audit-logs?page=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	NewAdminHandler(&stubPlans{}, nil, nil).ListAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/admin/audit-logs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
