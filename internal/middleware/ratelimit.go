package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	apperrors "github.com/bizdir/admin-server/internal/errors"
)

// RateLimit limits requests per client IP over a sliding window and answers
// with the standard JSON 429 body.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("rate limit exceeded")
			writeError(w, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many requests from this IP, please try again later."))
		}),
	)
}
