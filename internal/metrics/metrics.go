package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service's Prometheus metrics.
type Collector struct {
	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	logins              *prometheus.CounterVec
	auditFailures       prometheus.Counter
	scrapes             *prometheus.CounterVec
	expiredPartnerships prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bizdir_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdir_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizdir_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdir_logins_total",
			Help: "Admin login attempts by outcome.",
		}, []string{"outcome"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdir_audit_write_failures_total",
			Help: "Audit log entries that could not be persisted.",
		}),
		scrapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizdir_scrape_results_total",
			Help: "Metadata scrape results by outcome.",
		}, []string{"outcome"}),
		expiredPartnerships: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bizdir_partnerships_expired_total",
			Help: "Partnerships moved to EXPIRED by the expiry job.",
		}),
	}

	reg.MustRegister(
		c.httpInFlight,
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.logins,
		c.auditFailures,
		c.scrapes,
		c.expiredPartnerships,
	)

	return c
}

func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordAuditFailure() {
	c.auditFailures.Inc()
}

func (c *Collector) RecordScrape(success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	c.scrapes.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordExpiredPartnerships(n int) {
	c.expiredPartnerships.Add(float64(n))
}

// Instrument records request count, latency and in-flight gauge. The route
// label is the matched chi pattern so ids do not explode cardinality.
func (c *Collector) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.httpInFlight.Inc()
		defer c.httpInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := []string{r.Method, route, strconv.Itoa(status)}

		c.httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		c.httpRequestsTotal.WithLabelValues(labels...).Inc()
	})
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
