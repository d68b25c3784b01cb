package middleware

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type actorSlotKey struct{}

// actorSlot lets AuthMiddleware, which runs in a nested router, report the
// authenticated account back to RequestLogger.
type actorSlot struct {
	id atomic.Int64
}

func setActor(ctx context.Context, id int64) {
	if slot, ok := ctx.Value(actorSlotKey{}).(*actorSlot); ok {
		slot.id.Store(id)
	}
}

// RequestLogger emits one structured line per request. Level follows the
// response status.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		slot := &actorSlot{}
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), actorSlotKey{}, slot)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		event = event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start))
		if reqID := chimw.GetReqID(r.Context()); reqID != "" {
			event = event.Str("request_id", reqID)
		}
		if actorID := slot.id.Load(); actorID != 0 {
			event = event.Int64("actor_id", actorID)
		}
		event.Msg("http request")
	})
}
