package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bizdir/admin-server/internal/audit"
	"github.com/bizdir/admin-server/internal/model"
)

const expiryRunTimeout = 30 * time.Second

type PartnershipExpirer interface {
	ExpireEnded(ctx context.Context, now time.Time) ([]int64, error)
}

type ExpiryMetrics interface {
	RecordExpiredPartnerships(n int)
}

// PartnershipExpiryJob periodically moves ACTIVE partnerships past their end
// date to EXPIRED. Each transition is audited as a system action.
type PartnershipExpiryJob struct {
	partnerships PartnershipExpirer
	audit        audit.Recorder
	metrics      ExpiryMetrics
	interval     time.Duration
	now          func() time.Time
	done         chan struct{}
	stopped      chan struct{}
}

func NewPartnershipExpiryJob(
	partnerships PartnershipExpirer,
	recorder audit.Recorder,
	metrics ExpiryMetrics,
	interval time.Duration,
) *PartnershipExpiryJob {
	return &PartnershipExpiryJob{
		partnerships: partnerships,
		audit:        recorder,
		metrics:      metrics,
		interval:     interval,
		now:          time.Now,
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

func (j *PartnershipExpiryJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("partnership expiry job started")
}

// Stop waits for an in-flight run to finish.
func (j *PartnershipExpiryJob) Stop() {
	close(j.done)
	<-j.stopped
	log.Info().Msg("partnership expiry job stopped")
}

func (j *PartnershipExpiryJob) run() {
	defer close(j.stopped)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.expire()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.expire()
		}
	}
}

func (j *PartnershipExpiryJob) expire() int {
	ctx, cancel := context.WithTimeout(context.Background(), expiryRunTimeout)
	defer cancel()

	ids, err := j.partnerships.ExpireEnded(ctx, j.now())
	if err != nil {
		log.Error().Err(err).Msg("failed to expire partnerships")
		return 0
	}
	if len(ids) == 0 {
		return 0
	}

	for _, id := range ids {
		j.audit.Record(ctx, audit.Entry{
			Action:     model.ActionExpire,
			Resource:   model.ResourcePartnership,
			ResourceID: audit.Int64(id),
			Details:    "Partnership expired: end date passed",
		})
	}
	if j.metrics != nil {
		j.metrics.RecordExpiredPartnerships(len(ids))
	}

	log.Info().Int("count", len(ids)).Msg("expired partnerships")
	return len(ids)
}
