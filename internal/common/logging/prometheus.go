package logging

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// PrometheusHook counts log lines per level.
type PrometheusHook struct {
	counter *prometheus.CounterVec
}

// NewPrometheusHook creates the log line counter and registers it with the given registerer.
func NewPrometheusHook(r prometheus.Registerer) (*PrometheusHook, error) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "yasube_log_messages_total",
		Help: "Total number of log lines logged by level",
	}, []string{"level"})
	if err := r.Register(counter); err != nil {
		return nil, err
	}
	return &PrometheusHook{counter: counter}, nil
}

// Option returns the zap option installing the hook.
func (h *PrometheusHook) Option() zap.Option {
	return zap.Hooks(h.Run)
}

func (h *PrometheusHook) Run(e zapcore.Entry) error {
	h.counter.WithLabelValues(e.Level.String()).Inc()
	return nil
}
