package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/auth"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/util"
)

// parseID reads a positive integer path parameter.
func parseID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.InvalidInput(name, "must be a positive integer")
	}
	return id, nil
}

// identity returns the caller stored by the auth middleware.
func identity(r *http.Request) (*auth.Identity, error) {
	id := auth.IdentityFromContext(r.Context())
	if id == nil {
		return nil, apperrors.Unauthorized("Access token required")
	}
	return id, nil
}

// auditMeta prefills the request attribution of an audit entry.
func auditMeta(r *http.Request) audit.Entry {
	meta := audit.FromRequest(r)
	if id := auth.IdentityFromContext(r.Context()); id != nil {
		meta.ActorID = audit.Int64(id.ID)
	}
	return meta
}

// queryEnum returns the query value if it is one of allowed, "" when absent.
func queryEnum(r *http.Request, name string, allowed ...string) (string, error) {
	v := r.URL.Query().Get(name)
	if !util.IsValidEnum(v, allowed) {
		return "", apperrors.InvalidInput(name, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.InvalidInput(name, "must be true or false")
	}
	return &v, nil
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 1 {
		return 0, apperrors.InvalidInput(name, "must be a positive integer")
	}
	return v, nil
}

func querySearch(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("search"))
}
