package middleware

import (
	"mime"
	"net/http"
)

const (
	DefaultMaxBodySize = 1 << 20 // 1MB
)

type BodyLimitMiddleware struct {
	maxSize          int64
	maxMultipartSize int64
}

func NewBodyLimitMiddleware(maxSize int64) *BodyLimitMiddleware {
	if maxSize <= 0 {
		maxSize = DefaultMaxBodySize
	}
	return &BodyLimitMiddleware{maxSize: maxSize, maxMultipartSize: maxSize}
}

// WithMultipartLimit raises the limit for multipart/form-data bodies, which
// carry image uploads.
func (m *BodyLimitMiddleware) WithMultipartLimit(size int64) *BodyLimitMiddleware {
	if size > m.maxSize {
		m.maxMultipartSize = size
	}
	return m
}

func (m *BodyLimitMiddleware) limitFor(r *http.Request) int64 {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return m.maxMultipartSize
	}
	return m.maxSize
}

func (m *BodyLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := m.limitFor(r)
		if r.Body != nil && r.ContentLength > limit {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
				"error": "Request body too large",
			})
			return
		}

		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}
		next.ServeHTTP(w, r)
	})
}
