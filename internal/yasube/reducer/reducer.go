// Package reducer turns an unordered bag of raw samples into the aggregate metrics a scenario reports.
package reducer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/yasube/metric"
)

// Func computes one aggregate from the raw samples of a scenario run.
type Func func(raw []metric.Metric) metric.Metric

// Registry maps aggregate names to the function computing them.
type Registry struct {
	reducers map[metric.Name]Func
	logger   *logging.Logger
}

// NewRegistry returns a registry holding the standard reductions.
func NewRegistry() *Registry {
	r := &Registry{
		reducers: map[metric.Name]Func{},
		logger:   logging.StdLogger(),
	}
	r.Register(metric.AvgResponseTime, AvgResponseTime)
	r.Register(metric.AvgProductRetention, AvgProductRetention)
	r.Register(metric.PeakResponseTime, PeakResponseTime)
	r.Register(metric.ErrorRate, ErrorRate)
	r.Register(metric.AvgSize, AvgSize)
	r.Register(metric.MaxSize, MaxSize)
	r.Register(metric.Throughput, Throughput)
	r.Register(metric.TotalReadResultsName, TotalReadResults)
	return r
}

// WithLogger returns a copy of the registry that reports lookup misses to l. The reductions are shared.
func (r *Registry) WithLogger(l *logging.Logger) *Registry {
	return &Registry{reducers: r.reducers, logger: l}
}

// Register adds or replaces the reduction for name.
func (r *Registry) Register(name metric.Name, f Func) {
	r.reducers[name] = f
}

// Reduce computes one aggregate per expected name, in order. Names with no registered reduction are skipped
// with a warning.
func (r *Registry) Reduce(expected []metric.Name, raw []metric.Metric) []metric.Metric {
	out := make([]metric.Metric, 0, len(expected))
	for _, name := range expected {
		f, ok := r.reducers[name]
		if !ok {
			r.logger.WithField("metric", string(name)).Warn("No reducer registered for metric, skipping")
			continue
		}
		out = append(out, f(raw))
	}
	return out
}

func AvgResponseTime(raw []metric.Metric) metric.Metric {
	return metric.New(metric.AvgResponseTime, metric.MS, average(floats(raw, metric.ResponseTimeName)))
}

func AvgProductRetention(raw []metric.Metric) metric.Metric {
	return metric.New(metric.AvgProductRetention, metric.Days, average(floats(raw, metric.ProductRetentionName)))
}

func AvgSize(raw []metric.Metric) metric.Metric {
	return metric.New(metric.AvgSize, metric.Bytes, average(floats(raw, metric.SizeName)))
}

func PeakResponseTime(raw []metric.Metric) metric.Metric {
	return metric.New(metric.PeakResponseTime, metric.MS, peak(floats(raw, metric.ResponseTimeName)))
}

func MaxSize(raw []metric.Metric) metric.Metric {
	return metric.New(metric.MaxSize, metric.Bytes, peak(floats(raw, metric.SizeName)))
}

// ErrorRate is 100 - |failed - total| / total * 100 over the EXCEPTION samples, with total counted as 1
// when there are none.
func ErrorRate(raw []metric.Metric) metric.Metric {
	return metric.New(metric.ErrorRate, metric.Percentage, rate(raw))
}

func TotalReadResults(raw []metric.Metric) metric.Metric {
	var total int64
	for _, v := range floats(raw, metric.TotalReadResultsName) {
		total += int64(v)
	}
	return metric.New(metric.TotalReadResultsName, metric.Count, total)
}

// Throughput is the number of bytes received per second between the moment the first response started
// arriving and the moment the last one completed. Each START_TIME is paired with the RESPONSE_TIME at the
// same position; failed calls (negative response time or size) do not contribute. The value is a string
// rounded to two decimals, or "-1" when no call succeeded.
func Throughput(raw []metric.Metric) metric.Metric {
	var starts, ends []time.Time
	var responseTimes []float64
	var size float64
	for _, m := range raw {
		switch m.Name {
		case metric.StartTimeName:
			if t, ok := m.Time(); ok {
				starts = append(starts, t)
			}
		case metric.EndTimeName:
			if t, ok := m.Time(); ok {
				ends = append(ends, t)
			}
		case metric.ResponseTimeName:
			if v, ok := m.Float(); ok {
				responseTimes = append(responseTimes, v)
			}
		case metric.SizeName:
			if v, ok := m.Float(); ok && v >= 0 {
				size += v
			}
		}
	}

	var adjusted []time.Time
	for i, start := range starts {
		if i >= len(responseTimes) || responseTimes[i] < 0 {
			continue
		}
		adjusted = append(adjusted, start.Add(time.Duration(responseTimes[i]*float64(time.Millisecond))))
	}

	value := "-1"
	if len(adjusted) > 0 && len(ends) > 0 {
		first := adjusted[0]
		for _, t := range adjusted[1:] {
			if t.Before(first) {
				first = t
			}
		}
		last := ends[0]
		for _, t := range ends[1:] {
			if t.After(last) {
				last = t
			}
		}
		elapsed := last.Sub(first).Seconds()
		if elapsed == 0 {
			elapsed = 1
		}
		throughput := roundTo(size/elapsed, 2)
		logging.WithFields(map[string]any{
			"size":       size,
			"elapsed":    elapsed,
			"throughput": throughput,
		}).Debug("Computed throughput")
		value = formatFloat(throughput)
	}
	return metric.New(metric.Throughput, metric.BytesSec, value)
}

func floats(raw []metric.Metric, name metric.Name) []float64 {
	var out []float64
	for _, m := range metric.Values(raw, name) {
		if v, ok := m.Float(); ok {
			out = append(out, v)
		}
	}
	return out
}

// average of the non-negative samples, rounded half to even. -1 when every sample is negative, which
// includes the case of no samples at all.
func average(samples []float64) int64 {
	var sum float64
	var n int
	for _, s := range samples {
		if s >= 0 {
			sum += s
			n++
		}
	}
	if n == 0 {
		return -1
	}
	return int64(math.RoundToEven(sum / float64(n)))
}

func peak(samples []float64) int64 {
	if len(samples) == 0 {
		return 0
	}
	max := samples[0]
	for _, s := range samples[1:] {
		if s > max {
			max = s
		}
	}
	return int64(math.RoundToEven(max))
}

func rate(raw []metric.Metric) float64 {
	var failed, total int
	for _, m := range raw {
		if m.Name != metric.ExceptionName {
			continue
		}
		total++
		if v, ok := m.Bool(); ok && v {
			failed++
		}
	}
	actual := total
	if actual == 0 {
		actual = 1
	}
	return 100 - math.Abs(float64(failed-actual))/float64(actual)*100
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

// formatFloat renders whole numbers with a trailing ".0" so that result files keep their historical shape.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
