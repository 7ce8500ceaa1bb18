package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/replicatedhq/kots-sub006/internal/logging"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kotsconfig",
		Subsystem: "server",
		Name:      "http_requests_total",
		Help:      "HTTP requests handled, by route and status code.",
	}, []string{"route", "code"})

	liveValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "kotsconfig",
		Subsystem: "server",
		Name:      "liveconfig_duration_seconds",
		Help:      "Time spent recomputing and validating a submitted tree.",
		Buckets:   prometheus.DefBuckets,
	})

	saveRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kotsconfig",
		Subsystem: "server",
		Name:      "save_rejections_total",
		Help:      "Rejected save attempts, by reason.",
	}, []string{"reason"})
)

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument wraps a handler with a per-route request counter and access log.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		logging.LogHTTPRequest(r.RemoteAddr, r.Method, r.URL.Path, rec.status)
	}
}

// observeLiveValidation records one liveconfig recompute duration.
func observeLiveValidation(start time.Time) {
	liveValidationDuration.Observe(time.Since(start).Seconds())
}
