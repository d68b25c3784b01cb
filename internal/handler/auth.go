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

type AuthService interface {
	Login(ctx context.Context, email, password string, meta audit.Entry) (*service.LoginResult, error)
	Me(ctx context.Context, id int64) (*model.Account, error)
	Logout(ctx context.Context, identity *auth.Identity, meta audit.Entry) error
}

type AuthHandler struct {
	authService      AuthService
	authenticate     func(http.Handler) http.Handler
	loginRateLimiter *middleware.LoginRateLimiter
}

func NewAuthHandler(authService AuthService, authenticate func(http.Handler) http.Handler) *AuthHandler {
	return &AuthHandler{
		authService:      authService,
		authenticate:     authenticate,
		loginRateLimiter: middleware.NewLoginRateLimiter(),
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.loginRateLimiter.Handler).Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Get("/me", h.Me)
		r.Post("/logout", h.Logout)
	})

	return r
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password, audit.FromRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.authService.Me(r.Context(), caller.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, err := identity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.authService.Logout(r.Context(), caller, auditMeta(r)); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, "Logged out successfully")
}
