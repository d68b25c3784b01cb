package handler

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/config"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/httputil"
	"github.com/bizdir/admin-server/internal/middleware"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/service"
)

type ClinicService interface {
	Register(ctx context.Context, input service.ClinicInput, meta audit.Entry) (*model.Business, error)
	List(ctx context.Context, status model.BusinessStatus, params model.ListParams) (*model.Page[model.BusinessListItem], error)
	Get(ctx context.Context, id int64) (*model.Business, error)
	UpdateStatus(ctx context.Context, id int64, status model.BusinessStatus, reason *string, meta audit.Entry) (*model.Business, error)
	Delete(ctx context.Context, id int64, meta audit.Entry) error
}

// ClinicHandler serves the public clinic intake. Its responses use the
// {success, message, data} envelope the intake form expects.
type ClinicHandler struct {
	clinicService ClinicService
	authenticate  func(http.Handler) http.Handler
}

func NewClinicHandler(clinicService ClinicService, authenticate func(http.Handler) http.Handler) *ClinicHandler {
	return &ClinicHandler{
		clinicService: clinicService,
		authenticate:  authenticate,
	}
}

func (h *ClinicHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(middleware.RateLimit(config.PublicIntakeLimit, config.PublicIntakeWindow)).Post("/", h.Register)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate, middleware.RequireAdmin)
		r.Patch("/{id}/status", h.UpdateStatus)
		r.Delete("/{id}", h.Delete)
	})

	return r
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Details any    `json:"details,omitempty"`
}

type clinicPagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func writeEnvelope(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, envelope{Success: true, Message: message, Data: data})
}

func writeEnvelopeError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		log.Error().Err(err).Msg("clinic request failed")
		appErr = apperrors.Internal("Internal server error")
	}

	status := httputil.StatusFromCode(appErr.Code)
	if status >= http.StatusInternalServerError {
		if ok {
			log.Error().Err(appErr).Msg("clinic request failed")
		}
		writeJSON(w, status, envelope{Message: "Internal server error"})
		return
	}
	writeJSON(w, status, envelope{Message: appErr.Message, Details: appErr.Details})
}

type registerClinicRequest struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Address     string   `json:"address" validate:"required,max=200"`
	Phone       string   `json:"phone" validate:"required,max=30"`
	Website     *string  `json:"website" validate:"omitempty,url"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Specialties []string `json:"specialties" validate:"omitempty,max=20,dive,max=100"`
	Images      []string `json:"images" validate:"omitempty,max=10,dive,url"`
}

func (h *ClinicHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerClinicRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	clinic, err := h.clinicService.Register(r.Context(), service.ClinicInput{
		Name:        req.Name,
		Address:     req.Address,
		Phone:       req.Phone,
		Website:     req.Website,
		Description: req.Description,
		Specialties: req.Specialties,
		Images:      req.Images,
	}, audit.FromRequest(r))
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusCreated, "Clinic registered successfully", clinic)
}

func (h *ClinicHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	var status model.BusinessStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = model.BusinessStatus(strings.ToUpper(raw))
		if !slices.Contains(businessStatuses, string(status)) {
			writeEnvelopeError(w, apperrors.InvalidInput("status", "must be one of: pending, approved, rejected, suspended"))
			return
		}
	}

	page, err := h.clinicService.List(r.Context(), status, params)
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	clinics := page.Items
	if clinics == nil {
		clinics = []model.BusinessListItem{}
	}
	writeEnvelope(w, http.StatusOK, "", map[string]any{
		"clinics": clinics,
		"pagination": clinicPagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      page.Total,
			TotalPages: model.Pages(page.Total, params.Limit),
		},
	})
}

func (h *ClinicHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	clinic, err := h.clinicService.Get(r.Context(), id)
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "", clinic)
}

type clinicStatusRequest struct {
	Status string  `json:"status" validate:"required,oneof=approved rejected pending"`
	Reason *string `json:"reason" validate:"omitempty,max=1000"`
}

func (h *ClinicHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	var req clinicStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	status := model.BusinessStatus(strings.ToUpper(req.Status))
	clinic, err := h.clinicService.UpdateStatus(r.Context(), id, status, req.Reason, auditMeta(r))
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Clinic status updated", clinic)
}

func (h *ClinicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeEnvelopeError(w, err)
		return
	}

	if err := h.clinicService.Delete(r.Context(), id, auditMeta(r)); err != nil {
		writeEnvelopeError(w, err)
		return
	}

	writeEnvelope(w, http.StatusOK, "Clinic deleted", nil)
}
