package planner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasube/yasube/internal/yasube/configuration"
	"github.com/yasube/yasube/internal/yasube/instrumentation"
	"github.com/yasube/yasube/internal/yasube/report"
	"github.com/yasube/yasube/internal/yasube/scenario"
)

func intPtr(i int) *int { return &i }

func TestMergeCases(t *testing.T) {
	base := map[string]configuration.CaseConfig{
		"TestCase001": {"requests_count": 3, "query": "$top=10"},
		"TestCase011": {"requests_count": 1},
	}
	override := map[string]configuration.CaseConfig{
		"TestCase001": {"requests_count": 10, "max_retries": 2},
		"TestCase021": {"max_download_size": 1024},
	}

	merged := MergeCases(base, override)

	assert.Equal(t, map[string]configuration.CaseConfig{
		"TestCase001": {"requests_count": 10, "query": "$top=10", "max_retries": 2},
		"TestCase011": {"requests_count": 1},
		"TestCase021": {"max_download_size": 1024},
	}, merged)
	assert.Equal(t, 3, base["TestCase001"]["requests_count"])
	assert.NotContains(t, base["TestCase001"], "max_retries")
	assert.NotContains(t, base, "TestCase021")

	assert.Empty(t, MergeCases(nil, nil))
}

func TestWorkers(t *testing.T) {
	tests := map[string]struct {
		override, scenario *int
		platform           int
		want               int
	}{
		"platform default":          {platform: 2, want: 2},
		"scenario wins":             {scenario: intPtr(4), platform: 2, want: 4},
		"override wins":             {override: intPtr(8), scenario: intPtr(4), platform: 2, want: 8},
		"override without scenario": {override: intPtr(3), platform: 2, want: 3},
		"at least one":              {override: intPtr(0), platform: 2, want: 1},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, Workers(tc.override, tc.scenario, tc.platform))
		})
	}
}

func testPlatform(t *testing.T, key string, hits *atomic.Int32) configuration.PlatformConfig {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, `{"value":[{"Id":"a"},{"Id":"b"}]}`)
	}))
	t.Cleanup(server.Close)
	return configuration.PlatformConfig{Key: key, Label: key + " label", RootURI: server.URL + "/"}
}

func listScenario(key, path string) configuration.ScenarioConfig {
	return configuration.ScenarioConfig{
		Key:  key,
		Name: key + " name",
		Path: path,
		Cases: map[string]configuration.CaseConfig{
			"TestCase001": {"requests_count": 2},
		},
	}
}

func TestExecute(t *testing.T) {
	var hits atomic.Int32
	dhus := testPlatform(t, "DHUS", &hits)
	dhus.Scenarios = map[string]configuration.PlatformScenarioOverride{
		"TS01": {NumWorkers: intPtr(2), Cases: map[string]configuration.CaseConfig{"TestCase001": {"requests_count": 5}}},
	}
	plan := Plan{
		{Scenario: listScenario("TS01", "cba.scenarios.TestScenario01"), Platform: dhus},
		{Scenario: listScenario("TS04", "cba.scenarios.TestScenario04"), Platform: dhus},
		{Scenario: listScenario("TS05", "TestScenario05"), Platform: dhus},
	}
	sink := &report.MemorySink{}
	registry := prometheus.NewRegistry()

	summary, err := New(plan, sink, WithInstrumentation(instrumentation.New(registry))).Execute(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Ran())
	assert.Equal(t, 2, summary.Completed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, int32(7), hits.Load())
	require.Len(t, summary.Results, 3)
	assert.True(t, summary.Results[1].Skipped)

	records := sink.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "TS01 name", records[0].TestName)
	assert.Equal(t, "TS05 name", records[1].TestName)

	count, err := testutil.GatherAndCount(registry, instrumentation.MetricPrefix+"scenario_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	// the shared scenario configuration is left as it was
	assert.Equal(t, 2, plan[0].Scenario.Cases["TestCase001"]["requests_count"])
}

func TestExecute_FailuresDoNotStopThePlan(t *testing.T) {
	var hits atomic.Int32
	dhus := testPlatform(t, "DHUS", &hits)
	invalid := listScenario("TS02", "TestScenario01")
	invalid.Cases["TestCase001"]["requests_count"] = "many"
	plan := Plan{
		{Scenario: invalid, Platform: dhus},
		{Scenario: listScenario("TS01", "TestScenario01"), Platform: dhus},
	}

	summary, err := New(plan, &report.MemorySink{Err: assert.AnError}).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Error(t, summary.Results[0].Err)
	assert.ErrorIs(t, summary.Results[1].Err, assert.AnError)
	assert.Equal(t, int32(2), hits.Load())
}

func TestExecute_EmptyOutcome(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = fmt.Fprint(w, `{"value":[]}`)
	}))
	t.Cleanup(server.Close)
	plan := Plan{{
		Scenario: configuration.ScenarioConfig{Key: "TS02", Name: "Product detail", Path: "TestScenario02"},
		Platform: configuration.PlatformConfig{Key: "DHUS", Label: "DHUS", RootURI: server.URL + "/"},
	}}

	summary, err := New(plan, &report.MemorySink{}).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Empty)
	assert.Equal(t, scenario.Empty.String(), summary.Results[0].Outcome)
	assert.Equal(t, int32(1), hits.Load())
}

func TestExecute_Cancelled(t *testing.T) {
	var hits atomic.Int32
	plan := Plan{{Scenario: listScenario("TS01", "TestScenario01"), Platform: testPlatform(t, "DHUS", &hits)}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(plan, &report.MemorySink{}).Execute(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, summary.Ran())
	assert.Equal(t, int32(0), hits.Load())
}

func TestExecute_CustomResolver(t *testing.T) {
	var hits atomic.Int32
	plan := Plan{{Scenario: listScenario("TS01", "anything"), Platform: testPlatform(t, "DHUS", &hits)}}
	resolve := func(string) (scenario.Descriptor, bool) { return scenario.TestScenario05, true }

	summary, err := New(plan, &report.MemorySink{}, WithResolver(resolve)).Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Len(t, summary.Results[0].Record.Metrics, len(scenario.DetailMetrics))
}
