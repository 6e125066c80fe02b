package scenario

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/yasube/instrumentation"
	"github.com/yasube/yasube/internal/yasube/metric"
	"github.com/yasube/yasube/internal/yasube/reducer"
	"github.com/yasube/yasube/internal/yasube/report"
	"github.com/yasube/yasube/internal/yasube/testcase"
)

// Outcome is the terminal state a run ended in.
type Outcome int

const (
	// Completed runs reduced their metrics into the record.
	Completed Outcome = iota
	// Empty runs found nothing to fetch: the listing had no items or none survived the picking filter.
	Empty
	// Errored runs could not use their listing.
	Errored
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Empty:
		return "empty"
	case Errored:
		return "errored"
	}
	return "unknown"
}

// Engine runs one scenario against one platform.
type Engine struct {
	descriptor Descriptor
	name       string
	cases      map[string]testcase.Config
	target     testcase.Target
	workers    int

	reducers *reducer.Registry
	sink     report.Sink
	renderer testcase.Renderer
	metrics  *instrumentation.Metrics
	rng      *rand.Rand
	now      func() time.Time
	logger   *logging.Logger
}

type Option func(*Engine)

// WithWorkers bounds the number of concurrent calls. Values below one mean one.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

func WithReducers(r *reducer.Registry) Option {
	return func(e *Engine) { e.reducers = r }
}

func WithSink(s report.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func WithRenderer(r testcase.Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

func WithInstrumentation(m *instrumentation.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRand sets the source used to pick keys. It is only used from the goroutine calling Run.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine prepares a run of d named name. cases holds the config of each test case by key; cases without
// an entry use testcase.DefaultConfig.
func NewEngine(d Descriptor, name string, cases map[string]testcase.Config, target testcase.Target, opts ...Option) *Engine {
	e := &Engine{
		descriptor: d,
		name:       name,
		cases:      cases,
		target:     target,
		workers:    1,
		reducers:   reducer.NewRegistry(),
		sink:       &report.MemorySink{},
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	e.logger = logging.WithFields(map[string]any{
		"scenario": d.Key,
		"platform": target.Key,
		"workers":  e.workers,
	})
	return e
}

func (e *Engine) Workers() int {
	return e.workers
}

// Run executes the scenario once and hands the record to the sink. The returned error is only set when the
// record could not be written; failed calls are part of the metrics.
func (e *Engine) Run(ctx context.Context) (report.Record, Outcome, error) {
	start := e.now()
	list := e.newCase(e.descriptor.ListCase(e.target.Key))

	var metrics []metric.Metric
	outcome := Completed
	if e.descriptor.HasDetail() {
		metrics, outcome = e.runListThenDetail(ctx, list)
	} else {
		metrics = e.runList(ctx, list)
	}

	record := report.NewRecord(e.name, start, e.now(), metrics)
	e.logger.WithField("outcome", outcome.String()).Infof("Scenario %s finished in %.2fs", e.name, record.Duration)
	if err := e.sink.Write(record); err != nil {
		return record, outcome, errors.WithMessagef(err, "writing results of %s", e.name)
	}
	return record, outcome, nil
}

func (e *Engine) runList(ctx context.Context, list *testcase.Case) []metric.Metric {
	total := list.Config.RequestsCount
	batches := Fan(ctx, e.workers, total, func(ctx context.Context, i int) []metric.Metric {
		return list.RunList(ctx, i+1, total).Metrics
	})
	return e.reducers.Reduce(e.descriptor.ExpectedMetrics, metric.Flatten(batches))
}

func (e *Engine) runListThenDetail(ctx context.Context, list *testcase.Case) ([]metric.Metric, Outcome) {
	listing := list.RunList(ctx, 1, 1)
	switch {
	case listing.Response == nil || listing.Response.StatusCode != 200:
		e.logger.Warn("Listing failed, nothing to fetch")
		return nil, Errored
	case len(listing.Items) == 0:
		e.logger.Warn("Listing returned no items, nothing to fetch")
		return nil, Empty
	}

	detail := e.newCase(*e.descriptor.DetailCase)
	var filter Filter
	if e.descriptor.PickingFilter != nil {
		filter = e.descriptor.PickingFilter(detail.Config)
	}
	keys := PickKeys(listing.Items, detail.Config.RequestsCount, testcase.PrimaryKeyKey, filter, e.rng)
	if len(keys) == 0 {
		e.logger.Warnf("No key picked out of %d items", len(listing.Items))
		return nil, Empty
	}
	e.logger.Debugf("Picked keys %v", keys)

	batches := Fan(ctx, e.workers, len(keys), func(ctx context.Context, i int) []metric.Metric {
		return detail.RunDetail(ctx, keys[i]).Metrics
	})
	return e.reducers.Reduce(e.descriptor.ExpectedMetrics, metric.Flatten(batches)), Completed
}

func (e *Engine) newCase(d testcase.Descriptor) *testcase.Case {
	config, ok := e.cases[d.Key]
	if !ok {
		config = testcase.DefaultConfig()
	}
	opts := []testcase.Option{testcase.WithInstrumentation(e.metrics)}
	if e.renderer != nil {
		opts = append(opts, testcase.WithRenderer(e.renderer))
	}
	return testcase.New(d, config, e.target, opts...)
}
