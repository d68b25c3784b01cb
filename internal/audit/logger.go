package audit

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizdir/admin-server/internal/config"
	"github.com/bizdir/admin-server/internal/model"
	"github.com/bizdir/admin-server/internal/repository"
)

// Entry describes one privileged action. ActorID is nil for system actions.
type Entry struct {
	ActorID    *int64
	Action     model.AuditAction
	Resource   model.AuditResource
	ResourceID *int64
	Details    string
	IP         string
	UserAgent  string
}

// Recorder is a best-effort audit sink: it never fails the caller.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type FailureCounter interface {
	RecordAuditFailure()
}

type recorder struct {
	repo     repository.AdminLogRepository
	failures FailureCounter
	timeout  time.Duration
}

func NewRecorder(repo repository.AdminLogRepository, failures FailureCounter) Recorder {
	return &recorder{
		repo:     repo,
		failures: failures,
		timeout:  config.AuditWriteTimeout,
	}
}

func (r *recorder) Record(ctx context.Context, entry Entry) {
	// The write outlives a cancelled request but not the timeout.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	logger := log.With().
		Str("audit", "admin").
		Str("action", string(entry.Action)).
		Str("resource", string(entry.Resource)).
		Logger()
	if entry.ActorID != nil {
		logger = logger.With().Int64("actor_id", *entry.ActorID).Logger()
	}
	if entry.ResourceID != nil {
		logger = logger.With().Int64("resource_id", *entry.ResourceID).Logger()
	}
	if entry.IP != "" {
		logger = logger.With().Str("ip", entry.IP).Logger()
	}

	_, err := r.repo.Create(writeCtx, model.CreateAdminLogParams{
		UserID:     entry.ActorID,
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: entry.ResourceID,
		Details:    optional(entry.Details),
		IPAddress:  optional(entry.IP),
		UserAgent:  optional(entry.UserAgent),
	})
	if err != nil {
		if r.failures != nil {
			r.failures.RecordAuditFailure()
		}
		logger.Error().Err(err).Str("details", entry.Details).Msg("failed to persist audit entry")
		return
	}

	logger.Info().Str("details", entry.Details).Msg("admin audit event")
}

// FromRequest returns an Entry prefilled with the requester's IP and user agent.
func FromRequest(r *http.Request) Entry {
	return Entry{
		IP:        ClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// ClientIP is the connection address without its port. Forwarding headers
// are only honored once a trusted-proxy middleware has rewritten RemoteAddr.
func ClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Int64 is a helper for filling the pointer fields of Entry.
func Int64(v int64) *int64 {
	return &v
}
