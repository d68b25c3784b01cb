package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bizdir/admin-server/internal/audit"
	apperrors "github.com/bizdir/admin-server/internal/errors"
)

const (
	loginMaxAttempts    = 5
	loginWindowDuration = time.Minute
	loginCleanupPeriod  = 5 * time.Minute
)

type loginVisitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRateLimiter throttles login attempts per client IP with a token
// bucket refilling loginMaxAttempts per loginWindowDuration.
type LoginRateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*loginVisitor
	lastCleanup time.Time
	limit       rate.Limit
	burst       int
}

func NewLoginRateLimiter() *LoginRateLimiter {
	return &LoginRateLimiter{
		visitors:    make(map[string]*loginVisitor),
		lastCleanup: time.Now(),
		limit:       rate.Every(loginWindowDuration / loginMaxAttempts),
		burst:       loginMaxAttempts,
	}
}

func (l *LoginRateLimiter) cleanup(now time.Time) {
	if now.Sub(l.lastCleanup) < loginCleanupPeriod {
		return
	}
	l.lastCleanup = now

	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > loginWindowDuration {
			delete(l.visitors, ip)
		}
	}
}

func (l *LoginRateLimiter) isAllowed(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.cleanup(now)

	v, exists := l.visitors[ip]
	if !exists {
		v = &loginVisitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.isAllowed(audit.ClientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many login attempts. Please try again later."))
			return
		}

		next.ServeHTTP(w, r)
	})
}
