package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/auth"
	"github.com/bizdir/admin-server/internal/middleware"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/service"
)

type AccountService interface {
	List(ctx context.Context, filter model.AccountFilter, params model.ListParams) (*model.Page[model.AccountListItem], error)
	Get(ctx context.Context, id int64) (*service.AccountDetail, error)
	Create(ctx context.Context, actor *auth.Identity, input service.CreateAccountInput, meta audit.Entry) (*model.Account, error)
	Update(ctx context.Context, actor *auth.Identity, id int64, input service.UpdateAccountInput, meta audit.Entry) (*model.Account, error)
	Deactivate(ctx context.Context, actor *auth.Identity, id int64, meta audit.Entry) error
	Activate(ctx context.Context, actor *auth.Identity, id int64, meta audit.Entry) (*model.Account, error)
	Logs(ctx context.Context, id int64, params model.ListParams) (*model.Page[model.AdminLogWithActor], error)
	Overview(ctx context.Context) (*service.UserOverview, error)
}

var roles = []string{
	string(model.RoleUser),
	string(model.RoleAdmin),
	string(model.RoleSuperAdmin),
}

type UserHandler struct {
	accountService AccountService
	authenticate   func(http.Handler) http.Handler
}

func NewUserHandler(accountService AccountService, authenticate func(http.Handler) http.Handler) *UserHandler {
	return &UserHandler{
		accountService: accountService,
		authenticate:   authenticate,
	}
}

func (h *UserHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authenticate, middleware.RequireAdmin)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/stats/overview", h.Overview)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Deactivate)
	r.Post("/{id}/activate", h.Activate)
	r.Get("/{id}/logs", h.Logs)

	return r
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}
	role, err := queryEnum(r, "role", roles...)
	if err != nil {
		writeError(w, err)
		return
	}
	isActive, err := queryBool(r, "isActive")
	if err != nil {
		writeError(w, err)
		return
	}

	filter := model.AccountFilter{
		Role:     model.Role(role),
		IsActive: isActive,
		Search:   querySearch(r),
	}

	page, err := h.accountService.List(r.Context(), filter, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writePage(w, "users", page, params)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accountService.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type createUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Role     string  `json:"role" validate:"required,oneof=USER ADMIN SUPER_ADMIN"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accountService.Create(r.Context(), caller, service.CreateAccountInput{
		Email:    req.Email,
		Name:     req.Name,
		Role:     model.Role(req.Role),
		IsActive: req.IsActive,
		Password: req.Password,
	}, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type updateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Role     *string `json:"role" validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input := service.UpdateAccountInput{
		Name:     req.Name,
		IsActive: req.IsActive,
		Password: req.Password,
	}
	if req.Role != nil {
		role := model.Role(*req.Role)
		input.Role = &role
	}

	user, err := h.accountService.Update(r.Context(), caller, id, input, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.accountService.Deactivate(r.Context(), caller, id, auditMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, "User deactivated successfully")
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.accountService.Activate(r.Context(), caller, id, auditMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User activated successfully",
		"user":    user,
	})
}

func (h *UserHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.accountService.Logs(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}

	writePage(w, "logs", page, params)
}

func (h *UserHandler) Overview(w http.ResponseWriter, r *http.Request) {
	stats, err := h.accountService.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}
