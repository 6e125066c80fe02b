// Package yasube wires configuration, the execution planner and the report sink into the yasube command.
package yasube

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yasube/yasube/internal/common/config"
	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/common/yasubeerrors"
	"github.com/yasube/yasube/internal/yasube/build"
	"github.com/yasube/yasube/internal/yasube/configuration"
	"github.com/yasube/yasube/internal/yasube/instrumentation"
	"github.com/yasube/yasube/internal/yasube/planner"
	"github.com/yasube/yasube/internal/yasube/report"
	"github.com/yasube/yasube/internal/yasube/templating"
)

type App struct {
	// Parameters passed to the CLI by the user.
	Params *Params
	// Out receives tables and the run summary. Defaults to standard out.
	Out io.Writer
}

// Params holds every user-customizable parameter of a run.
type Params struct {
	// Path to the YAML configuration.
	ConfigPath string
	// Scenario keys to run. Takes precedence over Services.
	Scenarios []string
	Services  []string
	// Platform to run on instead of each scenario's default one.
	Platform string
	// Override the global section of the configuration when set.
	ResultBasepath string
	ResultFilename string
	// Print the configuration and stop.
	Echo bool
	// Print the execution plan and stop.
	DryRun bool
	// Serve Prometheus metrics on this port while running; 0 disables.
	MetricsPort uint16
}

func New() *App {
	return &App{
		Params: &Params{},
		Out:    os.Stdout,
	}
}

// Version prints build information.
func (a *App) Version() error {
	w := tabwriter.NewWriter(a.Out, 1, 1, 1, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Version:\t%s\n", build.ReleaseVersion)
	fmt.Fprintf(w, "Commit:\t%s\n", build.GitCommit)
	fmt.Fprintf(w, "Go version:\t%s\n", build.GoVersion)
	fmt.Fprintf(w, "Built:\t%s\n", build.BuildTime)
	return nil
}

// LoadConfiguration reads and validates the configuration, including the services and platform requested
// on the command line.
func (a *App) LoadConfiguration() (*configuration.Config, error) {
	c, err := configuration.Load(a.Params.ConfigPath)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		config.LogValidationErrors(err)
		return nil, err
	}
	if err := c.ValidateServices(a.Params.Services); err != nil {
		return nil, err
	}
	if err := c.ValidatePlatform(a.Params.Platform); err != nil {
		return nil, err
	}
	return c, nil
}

// Plan selects the executions requested by the parameters.
func (a *App) Plan(c *configuration.Config) (configuration.Plan, error) {
	scenarios, err := c.SelectScenarios(a.Params.Scenarios, a.Params.Services)
	if err != nil {
		return nil, err
	}
	return c.BuildPlan(scenarios, a.Params.Platform)
}

// Run executes the benchmark, or only prints the configuration or plan when asked to.
func (a *App) Run(ctx context.Context) error {
	c, err := a.LoadConfiguration()
	if err != nil {
		return err
	}
	if a.Params.Echo {
		a.EchoConfiguration(c)
		return nil
	}
	plan, err := a.Plan(c)
	if err != nil {
		return err
	}
	if a.Params.DryRun {
		a.EchoPlan(plan)
		return nil
	}

	registry := prometheus.NewRegistry()
	var metrics *instrumentation.Metrics
	var logOpts []zap.Option
	if a.Params.MetricsPort != 0 {
		metrics = instrumentation.New(registry)
		hook, err := logging.NewPrometheusHook(registry)
		if err != nil {
			return errors.WithStack(err)
		}
		logOpts = append(logOpts, hook.Option())
	}
	if c.Logging != nil || len(logOpts) > 0 {
		logConfig := logging.DefaultConfig()
		if c.Logging != nil {
			logConfig = *c.Logging
		}
		if err := logging.ConfigureApplicationLogging(logConfig, logOpts...); err != nil {
			return errors.WithStack(&yasubeerrors.ErrInvalidLoggingConfig{Cause: err})
		}
	}
	defer func() { _ = logging.StdLogger().Sync() }()

	global := c.Global
	if a.Params.ResultBasepath != "" {
		global.ResultBasepath = a.Params.ResultBasepath
	}
	if a.Params.ResultFilename != "" {
		global.ResultFilename = a.Params.ResultFilename
	}
	sink, err := report.NewFileSink(global.ResultBasepath, global.ResultFilename, global.CheckpointingEnabled())
	if err != nil {
		return err
	}

	stop := instrumentation.Serve(ctx, a.Params.MetricsPort, registry)
	defer stop()

	start := time.Now()
	summary, err := planner.New(plan, sink,
		planner.WithRenderer(templating.NewRenderer()),
		planner.WithInstrumentation(metrics),
	).Execute(ctx)
	a.PrintSummary(summary, time.Since(start))
	return err
}

// EchoConfiguration prints the configured platforms and scenarios.
func (a *App) EchoConfiguration(c *configuration.Config) {
	fmt.Fprintln(a.Out, "Configured platforms:")
	platforms := a.newTable([]string{"Platform", "Label", "Root URI", "Workers"})
	for _, key := range sortedKeys(c.Platforms) {
		p := c.Platforms[key].Spec()
		platforms.Append([]string{key, p.Label, p.RootURI, fmt.Sprint(p.NumWorkers)})
	}
	platforms.Render()

	fmt.Fprintln(a.Out)
	fmt.Fprintln(a.Out, "Configured scenarios:")
	scenarios := a.newTable([]string{"Scenario", "Name", "Default Platform", "Services"})
	for _, key := range sortedKeys(c.Scenarios) {
		s := c.Scenarios[key]
		defaultPlatform := ""
		if s.DefaultPlatform != nil {
			defaultPlatform = s.DefaultPlatform.Key
		}
		scenarios.Append([]string{key, s.Name, defaultPlatform, strings.Join(s.Services, ", ")})
	}
	scenarios.Render()
}

// EchoPlan prints the executions a run would perform.
func (a *App) EchoPlan(plan configuration.Plan) {
	fmt.Fprintln(a.Out, "Execution plan:")
	table := a.newTable([]string{"Scenario", "Platform"})
	for _, e := range plan {
		table.Append([]string{e.Scenario.Key, e.Platform.Key})
	}
	table.Render()
}

func (a *App) PrintSummary(s planner.Summary, elapsed time.Duration) {
	fmt.Fprintf(a.Out, "\n======= SUMMARY =======\n")
	fmt.Fprintf(a.Out, "Ran %d scenario(s) in %s\n", s.Ran(), elapsed.Round(time.Millisecond))
	fmt.Fprintf(a.Out, "Completed: %d\n", s.Completed)
	fmt.Fprintf(a.Out, "Empty: %d\n", s.Empty)
	fmt.Fprintf(a.Out, "Errored: %d\n", s.Errored)
	fmt.Fprintf(a.Out, "Failed: %d\n", s.Failed)
	fmt.Fprintf(a.Out, "Skipped: %d\n", s.Skipped)
}

func (a *App) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(a.Out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	return table
}
