package handler

import (
	"net/http"

	"github.com/bizdir/admin-server/internal/httputil"
	"github.com/bizdir/admin-server/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// writePage renders {<key>: [...], pagination: {...}}.
func writePage[T any](w http.ResponseWriter, key string, page *model.Page[T], params model.ListParams) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		key:          items,
		"pagination": newPagination(params, page.Total),
	})
}
