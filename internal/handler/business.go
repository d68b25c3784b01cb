package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/config"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/middleware"
	"github.com/bizdir/admin-server/internal/model"
)

type BusinessService interface {
	List(ctx context.Context, filter model.BusinessFilter, params model.ListParams) (*model.Page[model.BusinessListItem], error)
	Get(ctx context.Context, id int64) (*model.Business, error)
	Create(ctx context.Context, params model.CreateBusinessParams, meta audit.Entry) (*model.Business, error)
	Update(ctx context.Context, id int64, params model.UpdateBusinessParams, meta audit.Entry) (*model.Business, error)
	Delete(ctx context.Context, id int64, meta audit.Entry) error
	UploadImages(ctx context.Context, businessID int64, files []*multipart.FileHeader, meta audit.Entry) ([]model.BusinessImage, error)
	DeleteImage(ctx context.Context, businessID, imageID int64, meta audit.Entry) error
}

var businessStatuses = []string{
	string(model.BusinessStatusPending),
	string(model.BusinessStatusApproved),
	string(model.BusinessStatusRejected),
	string(model.BusinessStatusSuspended),
}

type BusinessHandler struct {
	businessService BusinessService
	authenticate    func(http.Handler) http.Handler
}

func NewBusinessHandler(businessService BusinessService, authenticate func(http.Handler) http.Handler) *BusinessHandler {
	return &BusinessHandler{
		businessService: businessService,
		authenticate:    authenticate,
	}
}

func (h *BusinessHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authenticate, middleware.RequireAdmin)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)

	// Images
	r.Post("/{id}/images", h.UploadImages)
	r.Delete("/{id}/images/{imageId}", h.DeleteImage)

	return r
}

func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	status, err := queryEnum(r, "status", businessStatuses...)
	if err != nil {
		writeError(w, err)
		return
	}

	filter := model.BusinessFilter{
		Status:   model.BusinessStatus(status),
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Search:   querySearch(r),
	}

	page, err := h.businessService.List(r.Context(), filter, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writePage(w, "businesses", page, params)
}

func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	business, err := h.businessService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"business": business})
}

type createBusinessRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Address     string  `json:"address" validate:"required,max=200"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=30"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Website     *string `json:"website" validate:"omitempty,url"`
	Category    string  `json:"category" validate:"required,max=50"`
}

func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBusinessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	business, err := h.businessService.Create(r.Context(), model.CreateBusinessParams{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Category:    req.Category,
	}, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"business": business})
}

type updateBusinessRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Address     *string `json:"address" validate:"omitempty,min=1,max=200"`
	Phone       *string `json:"phone" validate:"omitempty,min=7,max=30"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Website     *string `json:"website" validate:"omitempty,url"`
	Category    *string `json:"category" validate:"omitempty,min=1,max=50"`
	Status      *string `json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED SUSPENDED"`
	IsVerified  *bool   `json:"isVerified"`
}

func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateBusinessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	params := model.UpdateBusinessParams{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		Category:    req.Category,
		IsVerified:  req.IsVerified,
	}
	if req.Status != nil {
		status := model.BusinessStatus(*req.Status)
		params.Status = &status
	}

	business, err := h.businessService.Update(r.Context(), id, params, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"business": business})
}

func (h *BusinessHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.businessService.Delete(r.Context(), id, auditMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, "Business deleted successfully")
}

func (h *BusinessHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(config.MaxUploadFormMemory); err != nil {
		writeError(w, apperrors.ValidationError("Invalid multipart form"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	images, err := h.businessService.UploadImages(r.Context(), id, r.MultipartForm.File["images"], auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"images": images})
}

func (h *BusinessHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	imageID, err := parseID(r, "imageId")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.businessService.DeleteImage(r.Context(), id, imageID, auditMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, "Image deleted successfully")
}
