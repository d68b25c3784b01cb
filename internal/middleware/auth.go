package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/bizdir/admin-server/internal/auth"
	apperrors "github.com/bizdir/admin-server/internal/errors"
	"github.com/bizdir/admin-server/internal/model"
)

type AuthMiddleware struct {
	tokens      *auth.TokenManager
	revocations auth.RevocationStore
}

func NewAuthMiddleware(tokens *auth.TokenManager, revocations auth.RevocationStore) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, revocations: revocations}
}

// Handler authenticates the bearer token and stores the resolved
// auth.Identity in the request context.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			writeError(w, apperrors.Unauthorized("Access token required"))
			return
		}

		identity, err := m.tokens.Parse(token)
		if err != nil {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("auth middleware: rejected token")
			writeError(w, err)
			return
		}

		if m.revocations != nil {
			revoked, err := m.revocations.IsRevoked(r.Context(), identity.TokenID)
			if err != nil {
				// Fail open: a Redis outage must not lock every admin out.
				log.Error().Err(err).Msg("auth middleware: revocation lookup failed")
			} else if revoked {
				writeError(w, apperrors.InvalidToken("Token has been revoked"))
				return
			}
		}

		setActor(r.Context(), identity.ID)
		ctx := auth.WithIdentity(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects identities below min with 403. It must run after
// AuthMiddleware.Handler.
func RequireRole(min model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			if identity == nil {
				writeError(w, apperrors.Unauthorized("Authentication required"))
				return
			}
			if !identity.Role.AtLeast(min) {
				writeError(w, apperrors.Forbidden("Admin access required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}

func extractToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
