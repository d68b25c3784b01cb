package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/middleware"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/service"
)

type PartnershipService interface {
	List(ctx context.Context, filter model.PartnershipFilter, params model.ListParams) (*model.Page[model.Partnership], error)
	ListByBusiness(ctx context.Context, businessID int64, status model.PartnershipStatus, params model.ListParams) (*model.Page[model.Partnership], error)
	Get(ctx context.Context, id int64) (*model.Partnership, error)
	Create(ctx context.Context, params model.CreatePartnershipParams, meta audit.Entry) (*model.Partnership, error)
	Update(ctx context.Context, id int64, params model.UpdatePartnershipParams, meta audit.Entry) (*model.Partnership, error)
	UpdateStatus(ctx context.Context, id int64, status model.PartnershipStatus, meta audit.Entry) (*model.Partnership, error)
	Delete(ctx context.Context, id int64, meta audit.Entry) error
	Overview(ctx context.Context) (*service.PartnershipOverview, error)
}

var partnershipStatuses = []string{
	string(model.PartnershipStatusActive),
	string(model.PartnershipStatusInactive),
	string(model.PartnershipStatusExpired),
	string(model.PartnershipStatusTerminated),
}

type PartnershipHandler struct {
	partnershipService PartnershipService
	authenticate       func(http.Handler) http.Handler
}

func NewPartnershipHandler(partnershipService PartnershipService, authenticate func(http.Handler) http.Handler) *PartnershipHandler {
	return &PartnershipHandler{
		partnershipService: partnershipService,
		authenticate:       authenticate,
	}
}

func (h *PartnershipHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authenticate, middleware.RequireAdmin)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats/overview", h.Overview)
	r.Get("/business/{businessId}", h.ListByBusiness)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Patch("/{id}/status", h.UpdateStatus)

	return r
}

func (h *PartnershipHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := queryEnum(r, "status", partnershipStatuses...)
	if err != nil {
		writeError(w, err)
		return
	}
	businessID, err := queryInt64(r, "businessId")
	if err != nil {
		writeError(w, err)
		return
	}

	filter := model.PartnershipFilter{
		Status:     model.PartnershipStatus(status),
		BusinessID: businessID,
		Search:     querySearch(r),
	}

	page, err := h.partnershipService.List(r.Context(), filter, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writePage(w, "partnerships", page, params)
}

func (h *PartnershipHandler) ListByBusiness(w http.ResponseWriter, r *http.Request) {
	businessID, err := parseID(r, "businessId")
	if err != nil {
		writeError(w, err)
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := queryEnum(r, "status", partnershipStatuses...)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.partnershipService.ListByBusiness(r.Context(), businessID, model.PartnershipStatus(status), params)
	if err != nil {
		writeError(w, err)
		return
	}

	writePage(w, "partnerships", page, params)
}

func (h *PartnershipHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	partnership, err := h.partnershipService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"partnership": partnership})
}

type createPartnershipRequest struct {
	BusinessID  int64    `json:"businessId" validate:"required,gt=0"`
	PartnerName string   `json:"partnerName" validate:"required,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	StartDate   string   `json:"startDate" validate:"required"`
	EndDate     *string  `json:"endDate"`
	Status      *string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE EXPIRED TERMINATED"`
	Discount    *float64 `json:"discount" validate:"omitempty,min=0,max=100"`
	Terms       *string  `json:"terms" validate:"omitempty,max=2000"`
}

func (h *PartnershipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPartnershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		writeError(w, err)
		return
	}
	params := model.CreatePartnershipParams{
		BusinessID:  req.BusinessID,
		PartnerName: req.PartnerName,
		Description: req.Description,
		StartDate:   start,
		Status:      model.PartnershipStatusActive,
		Discount:    req.Discount,
		Terms:       req.Terms,
	}
	if req.EndDate != nil {
		end, err := parseDate("endDate", *req.EndDate)
		if err != nil {
			writeError(w, err)
			return
		}
		params.EndDate = &end
	}
	if req.Status != nil {
		params.Status = model.PartnershipStatus(*req.Status)
	}

	partnership, err := h.partnershipService.Create(r.Context(), params, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"partnership": partnership})
}

// endDate and discount may be sent as null to clear them.
type updatePartnershipRequest struct {
	PartnerName *string           `json:"partnerName" validate:"omitempty,min=1,max=100"`
	Description *string           `json:"description" validate:"omitempty,max=1000"`
	StartDate   *string           `json:"startDate"`
	EndDate     nullable[string]  `json:"endDate" validate:"-"`
	Status      *string           `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE EXPIRED TERMINATED"`
	Discount    nullable[float64] `json:"discount" validate:"-"`
	Terms       *string           `json:"terms" validate:"omitempty,max=2000"`
}

func (req *updatePartnershipRequest) params() (model.UpdatePartnershipParams, error) {
	params := model.UpdatePartnershipParams{
		PartnerName: req.PartnerName,
		Description: req.Description,
		Terms:       req.Terms,
	}
	var fields []apperrors.FieldError

	if req.StartDate != nil {
		if start, err := parseDate("startDate", *req.StartDate); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "startDate", Message: "must be an ISO 8601 date"})
		} else {
			params.StartDate = &start
		}
	}
	if req.EndDate.Set {
		if req.EndDate.Null {
			params.ClearEndDate = true
		} else if end, err := parseDate("endDate", req.EndDate.Value); err != nil {
			fields = append(fields, apperrors.FieldError{Field: "endDate", Message: "must be an ISO 8601 date"})
		} else {
			params.EndDate = &end
		}
	}
	if req.Discount.Set {
		switch d := req.Discount.Value; {
		case req.Discount.Null:
			params.ClearDiscount = true
		case d < 0 || d > 100:
			fields = append(fields, apperrors.FieldError{Field: "discount", Message: "must be between 0 and 100"})
		default:
			params.Discount = &d
		}
	}
	if req.Status != nil {
		status := model.PartnershipStatus(*req.Status)
		params.Status = &status
	}

	if len(fields) > 0 {
		return params, apperrors.InvalidFields(fields)
	}
	return params, nil
}

func (h *PartnershipHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updatePartnershipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		writeError(w, err)
		return
	}

	partnership, err := h.partnershipService.Update(r.Context(), id, params, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"partnership": partnership})
}

type partnershipStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE EXPIRED TERMINATED"`
}

func (h *PartnershipHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req partnershipStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	partnership, err := h.partnershipService.UpdateStatus(r.Context(), id, model.PartnershipStatus(req.Status), auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"partnership": partnership})
}

func (h *PartnershipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.partnershipService.Delete(r.Context(), id, auditMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, "Partnership deleted successfully")
}

func (h *PartnershipHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.partnershipService.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
