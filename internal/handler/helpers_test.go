package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bizdir/admin-server/internal/auth"
	"github.com/bizdir/admin-server/internal/model"
)

// authenticateAs stands in for the token middleware and attaches a fixed
// caller to every request.
func authenticateAs(id int64, role model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := auth.WithIdentity(r.Context(), &auth.Identity{
				ID:        id,
				Email:     "caller@example.com",
				Role:      role,
				TokenID:   "jti-test",
				ExpiresAt: time.Now().Add(time.Hour),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

var asAdmin = authenticateAs(1, model.RoleAdmin)

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "handler-test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// fieldNames collects the field names of a validation error body.
func fieldNames(t *testing.T, body map[string]any) []string {
	t.Helper()
	details, ok := body["details"].([]any)
	require.True(t, ok, "details missing: %v", body)

	names := make([]string, 0, len(details))
	for _, d := range details {
		names = append(names, d.(map[string]any)["field"].(string))
	}
	return names
}
