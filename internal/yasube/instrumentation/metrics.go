// Package instrumentation exposes Prometheus metrics about a running benchmark: how many calls were issued,
// how long they took and how scenario runs ended.
package instrumentation

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yasube/yasube/internal/common/logging"
)

const MetricPrefix = "yasube_"

// Call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeRetry   = "retry"
)

// Metrics records benchmark activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	bytesReceived    *prometheus.CounterVec
	scenarioRuns     *prometheus.CounterVec
	scenarioDuration *prometheus.HistogramVec
}

// New creates the instruments and registers them with r.
func New(r prometheus.Registerer) *Metrics {
	factory := promauto.With(r)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "requests_total",
				Help: "Number of call attempts by platform, test case and outcome",
			},
			[]string{"platform", "case", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricPrefix + "request_duration_seconds",
				Help:    "Time until response headers were received",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"platform", "case"},
		),
		bytesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "bytes_received_total",
				Help: "Response bytes read by platform and test case",
			},
			[]string{"platform", "case"},
		),
		scenarioRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricPrefix + "scenario_runs_total",
				Help: "Number of scenario runs by scenario, platform and outcome",
			},
			[]string{"scenario", "platform", "outcome"},
		),
		scenarioDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricPrefix + "scenario_duration_seconds",
				Help:    "Wall clock duration of scenario runs",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"scenario", "platform"},
		),
	}
}

func (m *Metrics) RecordAttempt(platform, testCase, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(platform, testCase, outcome).Inc()
}

func (m *Metrics) RecordResponse(platform, testCase string, elapsed time.Duration, size int64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(platform, testCase).Observe(elapsed.Seconds())
	if size > 0 {
		m.bytesReceived.WithLabelValues(platform, testCase).Add(float64(size))
	}
}

func (m *Metrics) RecordScenario(scenario, platform, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.scenarioRuns.WithLabelValues(scenario, platform, outcome).Inc()
	m.scenarioDuration.WithLabelValues(scenario, platform).Observe(duration.Seconds())
}

// Serve exposes the registry on :port/metrics until ctx is done. A port of 0 disables it.
func Serve(ctx context.Context, port uint16, g prometheus.Gatherer) func() {
	if port == 0 {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: ":" + strconv.Itoa(int(port)), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logging.Infof("Serving metrics on %s/metrics", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.WithStacktrace(err).Error("Metrics server stopped")
		}
	}()
	stop := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	go func() {
		<-ctx.Done()
		stop()
	}()
	return stop
}
