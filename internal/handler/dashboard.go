package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/middleware"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/service"
)

type DashboardService interface {
	Overview(ctx context.Context) (*service.DashboardOverview, error)
	RecentActivity(ctx context.Context, limit int) ([]model.AdminLogWithActor, error)
	BusinessStats(ctx context.Context) (*service.BusinessStats, error)
	PartnershipStats(ctx context.Context) (*service.PartnershipStats, error)
	UserStats(ctx context.Context) (*service.UserStats, error)
	MonthlyStats(ctx context.Context) ([]service.MonthlyStat, error)
	CategoryStats(ctx context.Context) ([]model.CategoryCount, error)
}

type DashboardHandler struct {
	dashboardService DashboardService
	authenticate     func(http.Handler) http.Handler
}

func NewDashboardHandler(dashboardService DashboardService, authenticate func(http.Handler) http.Handler) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		authenticate:     authenticate,
	}
}

func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authenticate, middleware.RequireAdmin)

	r.Get("/overview", h.Overview)
	r.Get("/recent-activity", h.RecentActivity)
	r.Get("/business-stats", h.BusinessStats)
	r.Get("/partnership-stats", h.PartnershipStats)
	r.Get("/user-stats", h.UserStats)
	r.Get("/monthly-stats", h.MonthlyStats)
	r.Get("/category-stats", h.CategoryStats)

	return r
}

func (h *DashboardHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.dashboardService.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"overview": overview})
}

func (h *DashboardHandler) RecentActivity(w http.ResponseWriter, r *http.Request) {
	limit := model.DefaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > model.MaxPageSize {
			writeError(w, apperrors.InvalidFields([]apperrors.FieldError{
				{Field: "limit", Message: "must be an integer between 1 and 100"},
			}))
			return
		}
		limit = v
	}

	logs, err := h.dashboardService.RecentActivity(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []model.AdminLogWithActor{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

func (h *DashboardHandler) BusinessStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.BusinessStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"businessStats": stats})
}

func (h *DashboardHandler) PartnershipStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.PartnershipStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"partnershipStats": stats})
}

func (h *DashboardHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.UserStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userStats": stats})
}

func (h *DashboardHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.MonthlyStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"monthlyStats": stats})
}

func (h *DashboardHandler) CategoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.CategoryStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if stats == nil {
		stats = []model.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"categoryStats": stats})
}
