package handlers

import (
	"net/http"
	"strconv"
	"time"

	"movie-api/internal/middleware"
	"movie-api/internal/models"
	apperrors "movie-api/internal/pkg/errors"
	"movie-api/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// AdminHandler exposes plan management and gate statistics to operators.
type AdminHandler struct {
	planService  services.PlanService
	stats        services.DecisionStats
	auditService services.AuditLogService
}

func NewAdminHandler(planService services.PlanService, stats services.DecisionStats, auditService services.AuditLogService) *AdminHandler {
	if stats == nil {
		stats = services.NoopDecisionStats{}
	}
	return &AdminHandler{planService: planService, stats: stats, auditService: auditService}
}

type setPlanRequest struct {
	Tier         models.PlanTier `json:"tier"`
	DailyCeiling int             `json:"daily_ceiling"`
}

type auditLogsResponse struct {
	Logs     []models.AuditLog `json:"logs"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

type statsResponse struct {
	Date   string           `json:"date"`
	Totals map[string]int64 `json:"totals"`
}

func accountIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	return id, err == nil
}

// SetPlan upgrades or downgrades an account. An omitted daily_ceiling takes
// the configured ceiling for the tier.
func (h *AdminHandler) SetPlan(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(r)
	if !ok {
		badRequest(w, "Invalid account ID")
		return
	}

	var req setPlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if req.DailyCeiling == 0 {
		req.DailyCeiling = h.planService.CeilingFor(req.Tier)
	}

	source := "admin"
	if subject, ok := middleware.AdminFromContext(r.Context()); ok {
		source = "admin:" + subject
	}

	plan, err := h.planService.Upgrade(r.Context(), accountID, req.Tier, req.DailyCeiling, source)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, plan)
}

func (h *AdminHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	accountID, ok := accountIDFromPath(r)
	if !ok {
		badRequest(w, "Invalid account ID")
		return
	}

	plan, err := h.planService.GetCeiling(r.Context(), accountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, plan)
}

// GetStats returns gate decision totals for one UTC day (YYYY-MM-DD).
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	day, err := time.Parse("2006-01-02", mux.Vars(r)["date"])
	if err != nil {
		badRequest(w, "Date must be formatted as YYYY-MM-DD")
		return
	}

	totals, err := h.stats.Totals(r.Context(), day)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, statsResponse{Date: day.Format("2006-01-02"), Totals: totals})
}

// ListAuditLogs pages through plan changes, newest first.
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if h.auditService == nil {
		respondWithError(w, apperrors.ErrNotConfigured)
		return
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		badRequest(w, "page must be a number")
		return
	}
	pageSize, err := queryInt(r, "page_size", 20)
	if err != nil {
		badRequest(w, "page_size must be a number")
		return
	}

	logs, total, err := h.auditService.GetAuditLogs(r.Context(), page, pageSize)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	respondWithJSON(w, http.StatusOK, auditLogsResponse{Logs: logs, Total: total, Page: page, PageSize: pageSize})
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
