package middleware

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/unrolled/secure"
)

type SecurityHeadersMiddleware struct {
	secure *secure.Secure
}

// NewSecurityHeadersMiddleware configures headers for a JSON API whose only
// browser-facing content is uploaded images.
func NewSecurityHeadersMiddleware(isProduction bool) *SecurityHeadersMiddleware {
	opts := secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; img-src 'self'; frame-ancestors 'none'",
		// Uploaded images are embedded by the admin UI on another origin.
		CrossOriginResourcePolicy: "cross-origin",
		IsDevelopment:             !isProduction,
	}
	if isProduction {
		opts.STSSeconds = 31536000
		opts.STSIncludeSubdomains = true
		opts.SSLProxyHeaders = map[string]string{"X-Forwarded-Proto": "https"}
	}
	return &SecurityHeadersMiddleware{secure: secure.New(opts)}
}

func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.secure.Process(w, r); err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("secure headers blocked request")
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Request blocked"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
