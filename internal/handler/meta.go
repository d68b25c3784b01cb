package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bizdir/admin-server/internal/scraper"
)

type MetaImporter interface {
	ImportMeta(ctx context.Context, urls []string) ([]scraper.Result, error)
}

type MetaHandler struct {
	importer MetaImporter
}

func NewMetaHandler(importer MetaImporter) *MetaHandler {
	return &MetaHandler{importer: importer}
}

func (h *MetaHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/importMeta", h.ImportMeta)
	return r
}

// URL checks live in the scraper so every entry is reported, not just the
// first.
type importMetaRequest struct {
	URLs []string `json:"urls"`
}

func (h *MetaHandler) ImportMeta(w http.ResponseWriter, r *http.Request) {
	var req importMetaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	results, err := h.importer.ImportMeta(r.Context(), req.URLs)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
