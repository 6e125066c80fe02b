// Package scenario runs benchmark scenarios: a listing, optionally followed by detail or download calls on
// keys picked from it, reduced into one report record.
package scenario

import (
	"strings"

	"github.com/yasube/yasube/internal/yasube/metric"
	"github.com/yasube/yasube/internal/yasube/testcase"
)

// Filter keeps the listed items eligible for picking.
type Filter func(item testcase.Item) bool

// Descriptor declares the test cases a scenario is made of and the metrics it reports.
type Descriptor struct {
	Key string
	// ListCase selects the listing for a platform key. It is resolved once per run.
	ListCase func(platformKey string) testcase.Descriptor
	// DetailCase, when set, makes this a list-then-detail scenario.
	DetailCase      *testcase.Descriptor
	ExpectedMetrics []metric.Name
	// PickingFilter builds the item filter from the detail case config.
	PickingFilter func(config testcase.Config) Filter
}

// HasDetail reports whether keys picked from the listing are fetched afterwards.
func (d Descriptor) HasDetail() bool {
	return d.DetailCase != nil
}

var (
	ListMetrics = []metric.Name{
		metric.AvgResponseTime,
		metric.PeakResponseTime,
		metric.ErrorRate,
		metric.TotalReadResultsName,
	}
	DetailMetrics = []metric.Name{
		metric.AvgResponseTime,
		metric.PeakResponseTime,
		metric.ErrorRate,
	}
	DownloadMetrics = []metric.Name{
		metric.AvgResponseTime,
		metric.PeakResponseTime,
		metric.AvgSize,
		metric.MaxSize,
		metric.Throughput,
		metric.ErrorRate,
	}
)

func fixed(d testcase.Descriptor) func(string) testcase.Descriptor {
	return func(string) testcase.Descriptor { return d }
}

// MaxDownloadSize keeps items whose ContentLength is below the configured max_download_size. Items without
// a ContentLength count as empty.
func MaxDownloadSize(config testcase.Config) Filter {
	if config.MaxDownloadSize == nil {
		return nil
	}
	limit := float64(*config.MaxDownloadSize)
	return func(item testcase.Item) bool {
		return item.Number("ContentLength", 0) < limit
	}
}

// CADIPMarker in a platform key selects session listings for scenarios that adapt to the service.
const CADIPMarker = "CADIP"

func sessionsOrProducts(platformKey string) testcase.Descriptor {
	if strings.Contains(platformKey, CADIPMarker) {
		return testcase.TestCase701
	}
	return testcase.TestCase001
}

func withMetrics(base []metric.Name, extra ...metric.Name) []metric.Name {
	out := make([]metric.Name, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

var (
	TestScenario01 = Descriptor{
		Key:             "TestScenario01",
		ListCase:        fixed(testcase.TestCase001),
		ExpectedMetrics: withMetrics(ListMetrics, metric.AvgProductRetention),
	}
	TestScenario02 = Descriptor{
		Key:             "TestScenario02",
		ListCase:        fixed(testcase.TestCase001),
		DetailCase:      &testcase.TestCase011,
		ExpectedMetrics: DetailMetrics,
	}
	TestScenario03 = Descriptor{
		Key:             "TestScenario03",
		ListCase:        fixed(testcase.TestCase001),
		DetailCase:      &testcase.TestCase021,
		ExpectedMetrics: DownloadMetrics,
		PickingFilter:   MaxDownloadSize,
	}
	TestScenario05 = Descriptor{
		Key:             "TestScenario05",
		ListCase:        sessionsOrProducts,
		ExpectedMetrics: DetailMetrics,
	}
	TestScenario07 = Descriptor{
		Key:             "TestScenario07",
		ListCase:        fixed(testcase.TestCase701),
		DetailCase:      &testcase.TestCase711,
		ExpectedMetrics: DetailMetrics,
	}
	TestScenario08 = Descriptor{
		Key:             "TestScenario08",
		ListCase:        fixed(testcase.TestCase801),
		DetailCase:      &testcase.TestCase821,
		ExpectedMetrics: DownloadMetrics,
		PickingFilter:   MaxDownloadSize,
	}
	TestScenario10 = Descriptor{
		Key:             "TestScenario10",
		ListCase:        fixed(testcase.TestCase801),
		DetailCase:      &testcase.TestCase811,
		ExpectedMetrics: DetailMetrics,
	}
)

// Catalogue indexes the built-in scenarios by key.
var Catalogue = map[string]Descriptor{
	TestScenario01.Key: TestScenario01,
	TestScenario02.Key: TestScenario02,
	TestScenario03.Key: TestScenario03,
	TestScenario05.Key: TestScenario05,
	TestScenario07.Key: TestScenario07,
	TestScenario08.Key: TestScenario08,
	TestScenario10.Key: TestScenario10,
}

// Resolve finds the scenario a configuration path refers to. Only the last dot-separated segment of the path
// is significant, so "suite.scenarios.test_scenario_01.TestScenario01" resolves to TestScenario01.
func Resolve(path string) (Descriptor, bool) {
	name := path
	if i := strings.LastIndex(path, "."); i >= 0 {
		name = path[i+1:]
	}
	d, ok := Catalogue[name]
	return d, ok
}
