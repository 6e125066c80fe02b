// Package planner runs the scenario and platform pairs of an execution plan, one after the other.
package planner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/yasube/configuration"
	"github.com/yasube/yasube/internal/yasube/instrumentation"
	"github.com/yasube/yasube/internal/yasube/platform"
	"github.com/yasube/yasube/internal/yasube/reducer"
	"github.com/yasube/yasube/internal/yasube/report"
	"github.com/yasube/yasube/internal/yasube/scenario"
	"github.com/yasube/yasube/internal/yasube/testcase"
)

type (
	Execution = configuration.Execution
	Plan      = configuration.Plan
)

// Result of one execution of the plan.
type Result struct {
	Scenario string
	Platform string
	// Outcome of the run; empty when it was skipped or could not start.
	Outcome string
	Skipped bool
	Err     error
	Record  report.Record
}

// Summary counts how the executions of a plan ended.
type Summary struct {
	RunID     string
	Completed int
	Empty     int
	Errored   int
	Skipped   int
	Failed    int
	Results   []Result
}

// Ran is the number of scenarios that were started.
func (s Summary) Ran() int {
	return s.Completed + s.Empty + s.Errored + s.Failed
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Err != nil:
		s.Failed++
	case r.Outcome == scenario.Empty.String():
		s.Empty++
	case r.Outcome == scenario.Errored.String():
		s.Errored++
	default:
		s.Completed++
	}
}

type Planner struct {
	plan     Plan
	sink     report.Sink
	renderer testcase.Renderer
	reducers *reducer.Registry
	metrics  *instrumentation.Metrics
	resolve  func(path string) (scenario.Descriptor, bool)
}

type Option func(*Planner)

func WithRenderer(r testcase.Renderer) Option {
	return func(p *Planner) { p.renderer = r }
}

func WithReducers(r *reducer.Registry) Option {
	return func(p *Planner) { p.reducers = r }
}

func WithInstrumentation(m *instrumentation.Metrics) Option {
	return func(p *Planner) { p.metrics = m }
}

// WithResolver replaces the lookup of scenario implementations, scenario.Resolve by default.
func WithResolver(resolve func(path string) (scenario.Descriptor, bool)) Option {
	return func(p *Planner) { p.resolve = resolve }
}

func New(plan Plan, sink report.Sink, opts ...Option) *Planner {
	p := &Planner{
		plan:     plan,
		sink:     sink,
		reducers: reducer.NewRegistry(),
		resolve:  scenario.Resolve,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Execute runs the plan. Failing scenarios are logged and counted without stopping the plan; the only
// error returned is the cancellation of ctx, checked between scenarios.
func (p *Planner) Execute(ctx context.Context) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	logger := logging.WithField("run", summary.RunID)
	logger.Infof("Executing %d scenario(s)", len(p.plan))

	specs := make([]platform.Spec, 0, len(p.plan))
	for _, e := range p.plan {
		specs = append(specs, e.Platform.Spec())
	}
	platforms := platform.NewRegistry(specs)

	for _, e := range p.plan {
		if err := ctx.Err(); err != nil {
			logger.Warnf("Stopping with %d scenario(s) left", len(p.plan)-len(summary.Results))
			return summary, errors.WithStack(err)
		}
		summary.add(p.execute(ctx, logger, platforms, e))
	}
	logger.Infof(
		"Ran %d scenario(s): %d completed, %d empty, %d errored, %d failed, %d skipped",
		summary.Ran(), summary.Completed, summary.Empty, summary.Errored, summary.Failed, summary.Skipped,
	)
	return summary, nil
}

func (p *Planner) execute(ctx context.Context, logger *logging.Logger, platforms *platform.Registry, e Execution) Result {
	result := Result{Scenario: e.Scenario.Key, Platform: e.Platform.Key}
	logger = logger.WithFields(map[string]any{"scenario": e.Scenario.Key, "platform": e.Platform.Key})

	d, ok := p.resolve(e.Scenario.Path)
	if !ok {
		logger.Warnf("Scenario '%s' not found, skipping", e.Scenario.Path)
		result.Skipped = true
		return result
	}

	override := e.Platform.Scenarios[e.Scenario.Key]
	cases, err := DecodeCases(MergeCases(e.Scenario.Cases, override.Cases))
	if err != nil {
		result.Err = err
		logger.WithStacktrace(err).Error("Invalid case configuration")
		return result
	}

	plat, err := platforms.Get(e.Platform.Key)
	if err != nil {
		result.Err = err
		logger.WithStacktrace(err).Error("Platform unavailable")
		return result
	}
	workers := Workers(override.NumWorkers, e.Scenario.NumWorkers, plat.NumWorkers)

	engine := scenario.NewEngine(d, e.Scenario.Name, cases, testcase.TargetOf(plat),
		scenario.WithWorkers(workers),
		scenario.WithSink(p.sink),
		scenario.WithReducers(p.reducers.WithLogger(logger)),
		scenario.WithRenderer(p.renderer),
		scenario.WithInstrumentation(p.metrics),
	)
	logger.WithField("workers", workers).Infof("Running %s on %s with %d worker(s)", e.Scenario.Name, plat.Label, workers)

	start := time.Now()
	record, outcome, err := engine.Run(ctx)
	result.Record = record
	result.Outcome = outcome.String()
	result.Err = err
	metricOutcome := result.Outcome
	switch {
	case err != nil:
		metricOutcome = "failed"
		logger.WithStacktrace(err).Errorf("Scenario %s failed", e.Scenario.Name)
	case record.Empty():
		logger.Warnf("Scenario %s reported no metrics (%s)", e.Scenario.Name, result.Outcome)
	}
	p.metrics.RecordScenario(e.Scenario.Key, e.Platform.Key, metricOutcome, time.Since(start))
	return result
}

// MergeCases overlays platform specific case settings on the scenario ones, key by key within each case.
// Neither input is modified.
func MergeCases(base, override map[string]configuration.CaseConfig) map[string]configuration.CaseConfig {
	merged := make(map[string]configuration.CaseConfig, len(base)+len(override))
	for key, c := range base {
		merged[key] = copyCase(c)
	}
	for key, c := range override {
		target, ok := merged[key]
		if !ok {
			target = configuration.CaseConfig{}
			merged[key] = target
		}
		for k, v := range c {
			target[k] = v
		}
	}
	return merged
}

func copyCase(c configuration.CaseConfig) configuration.CaseConfig {
	out := make(configuration.CaseConfig, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// DecodeCases decodes every case configuration.
func DecodeCases(raw map[string]configuration.CaseConfig) (map[string]testcase.Config, error) {
	out := make(map[string]testcase.Config, len(raw))
	for key, c := range raw {
		decoded, err := testcase.DecodeConfig(c)
		if err != nil {
			return nil, errors.WithMessagef(err, "case %s", key)
		}
		out[key] = decoded
	}
	return out, nil
}

// Workers resolves the size of the worker pool: the platform's override for the scenario, then the
// scenario's own setting, then the platform default. The result is at least one.
func Workers(override, scenarioWorkers *int, platformDefault int) int {
	n := platformDefault
	switch {
	case override != nil:
		n = *override
	case scenarioWorkers != nil:
		n = *scenarioWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}
