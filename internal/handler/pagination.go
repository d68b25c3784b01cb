package handler

import (
	"net/http"
	"strconv"

	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
)

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ParsePagination reads page (>= 1, default 1) and limit (1..100, default
// 20). Out-of-range or non-numeric values are rejected rather than clamped.
func ParsePagination(r *http.Request) (model.ListParams, error) {
	return parsePagination(r, model.DefaultPageSize)
}

func parsePagination(r *http.Request, defaultLimit int) (model.ListParams, error) {
	params := model.ListParams{Page: 1, Limit: defaultLimit}
	var fields []apperrors.FieldError

	if raw := r.URL.Query().Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			fields = append(fields, apperrors.FieldError{Field: "page", Message: "must be an integer >= 1"})
		} else {
			params.Page = page
		}
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > model.MaxPageSize {
			fields = append(fields, apperrors.FieldError{Field: "limit", Message: "must be an integer between 1 and 100"})
		} else {
			params.Limit = limit
		}
	}

	if len(fields) > 0 {
		return params, apperrors.InvalidFields(fields)
	}
	return params, nil
}

func newPagination(params model.ListParams, total int) Pagination {
	return Pagination{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Pages: model.Pages(total, params.Limit),
	}
}
