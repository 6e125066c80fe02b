package reducer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/yasube/metric"
)

func responseTimes(values ...float64) []metric.Metric {
	out := make([]metric.Metric, 0, len(values))
	for _, v := range values {
		out = append(out, metric.ResponseTime(v))
	}
	return out
}

func exceptions(failed, total int) []metric.Metric {
	out := make([]metric.Metric, 0, total)
	for i := 0; i < total; i++ {
		out = append(out, metric.Exception(i < failed))
	}
	return out
}

func TestAvgResponseTime(t *testing.T) {
	tests := map[string]struct {
		samples []float64
		want    int64
	}{
		"rounded mean":                {samples: []float64{100, 200, 301}, want: 200},
		"half rounds to even":         {samples: []float64{1, 2}, want: 2},
		"half rounds to even (down)":  {samples: []float64{2, 3, 2, 3, 0.5, 4.5}, want: 2},
		"failures ignored":            {samples: []float64{-1, 120, -1, 80}, want: 100},
		"all failed":                  {samples: []float64{-1, -1, -1}, want: -1},
		"no samples":                  {samples: nil, want: -1},
		"zero latency is not a fault": {samples: []float64{0, 0}, want: 0},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := AvgResponseTime(responseTimes(tc.samples...))
			assert.Equal(t, metric.AvgResponseTime, got.Name)
			assert.Equal(t, metric.MS, got.Unit)
			assert.Equal(t, tc.want, got.Value)
		})
	}
}

func TestPeakAndMax(t *testing.T) {
	assert.Equal(t, int64(301), PeakResponseTime(responseTimes(100, 300.6, -1)).Value)
	assert.Equal(t, int64(0), PeakResponseTime(nil).Value)

	sizes := []metric.Metric{metric.Size(10), metric.Size(-1), metric.Size(2048)}
	assert.Equal(t, int64(2048), MaxSize(sizes).Value)
	assert.Equal(t, int64(1029), AvgSize(sizes).Value)
	assert.Equal(t, int64(0), MaxSize(nil).Value)
}

func TestErrorRate(t *testing.T) {
	tests := map[string]struct {
		raw  []metric.Metric
		want float64
	}{
		"one of four failed":   {raw: exceptions(1, 4), want: 25},
		"all failed":           {raw: exceptions(4, 4), want: 100},
		"none failed":          {raw: exceptions(0, 4), want: 0},
		"three of four failed": {raw: exceptions(3, 4), want: 75},
		"no samples":           {raw: nil, want: 0},
		"other samples ignored": {
			raw:  append(exceptions(1, 2), metric.ResponseTime(10)),
			want: 50,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got := ErrorRate(tc.raw)
			assert.Equal(t, metric.Percentage, got.Unit)
			assert.Equal(t, tc.want, got.Value)
		})
	}
}

func TestThroughput(t *testing.T) {
	t0 := time.Date(2022, 9, 7, 15, 0, 0, 0, time.UTC)

	t.Run("single sample", func(t *testing.T) {
		raw := []metric.Metric{
			metric.StartTime(t0),
			metric.ResponseTime(100),
			metric.EndTime(t0.Add(500 * time.Millisecond)),
			metric.Size(1000),
		}
		got := Throughput(raw)
		assert.Equal(t, metric.BytesSec, got.Unit)
		assert.Equal(t, "2500.0", got.Value)
	})

	t.Run("interleaved batches", func(t *testing.T) {
		raw := []metric.Metric{
			metric.StartTime(t0.Add(time.Second)),
			metric.ResponseTime(0),
			metric.EndTime(t0.Add(3 * time.Second)),
			metric.Size(500),
			metric.StartTime(t0),
			metric.ResponseTime(1000),
			metric.EndTime(t0.Add(2 * time.Second)),
			metric.Size(1500),
		}
		// earliest adjusted start is t0+1s, latest end t0+3s
		assert.Equal(t, "1000.0", Throughput(raw).Value)
	})

	t.Run("failed call ignored", func(t *testing.T) {
		raw := []metric.Metric{
			metric.StartTime(t0),
			metric.ResponseTime(100),
			metric.EndTime(t0.Add(500 * time.Millisecond)),
			metric.Size(1000),
			metric.StartTime(t0.Add(-time.Hour)),
			metric.ResponseTime(-1),
			metric.Size(-1),
			metric.Exception(true),
		}
		assert.Equal(t, "2500.0", Throughput(raw).Value)
	})

	t.Run("zero elapsed counts as one second", func(t *testing.T) {
		raw := []metric.Metric{
			metric.StartTime(t0),
			metric.ResponseTime(0),
			metric.EndTime(t0),
			metric.Size(123),
		}
		assert.Equal(t, "123.0", Throughput(raw).Value)
	})

	t.Run("fractional", func(t *testing.T) {
		raw := []metric.Metric{
			metric.StartTime(t0),
			metric.ResponseTime(0),
			metric.EndTime(t0.Add(3 * time.Second)),
			metric.Size(1000),
		}
		assert.Equal(t, "333.33", Throughput(raw).Value)
	})

	t.Run("no samples", func(t *testing.T) {
		assert.Equal(t, "-1", Throughput(nil).Value)
	})
}

func TestTotalReadResults(t *testing.T) {
	raw := []metric.Metric{metric.TotalReadResults(10), metric.TotalReadResults(0), metric.TotalReadResults(5)}
	assert.Equal(t, int64(15), TotalReadResults(raw).Value)
}

func TestReduce_OrderFollowsExpected(t *testing.T) {
	raw := append(responseTimes(10, 30), exceptions(0, 2)...)
	out := NewRegistry().Reduce([]metric.Name{metric.ErrorRate, metric.PeakResponseTime, metric.AvgResponseTime}, raw)

	require.Len(t, out, 3)
	assert.Equal(t, metric.ErrorRate, out[0].Name)
	assert.Equal(t, metric.PeakResponseTime, out[1].Name)
	assert.Equal(t, metric.AvgResponseTime, out[2].Name)
	assert.Equal(t, int64(20), out[2].Value)
}

func TestReduce_UnregisteredNameSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	registry := NewRegistry().WithLogger(logging.FromZap(zap.New(core)))

	var out []metric.Metric
	assert.NotPanics(t, func() {
		out = registry.Reduce([]metric.Name{metric.AvgResponseTime, metric.DataCoverage, metric.ErrorRate}, responseTimes(5))
	})

	require.Len(t, out, 2)
	assert.Equal(t, metric.AvgResponseTime, out[0].Name)
	assert.Equal(t, metric.ErrorRate, out[1].Name)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dataCoverage", logs.All()[0].ContextMap()["metric"])
}

func TestWithLogger_LeavesReceiverUntouched(t *testing.T) {
	registry := NewRegistry()
	original := registry.logger

	core, logs := observer.New(zapcore.WarnLevel)
	scoped := registry.WithLogger(logging.FromZap(zap.New(core)))

	assert.NotSame(t, registry, scoped)
	assert.Same(t, original, registry.logger)
	scoped.Reduce([]metric.Name{metric.DataCoverage}, nil)
	assert.Equal(t, 1, logs.Len())
}

func TestRegister_Extension(t *testing.T) {
	registry := NewRegistry()
	assert.NotContains(t, registry.reducers, metric.TotalSize)

	registry.Register(metric.TotalSize, func(raw []metric.Metric) metric.Metric {
		var total int64
		for _, m := range metric.Values(raw, metric.SizeName) {
			if v, ok := m.Float(); ok && v > 0 {
				total += int64(v)
			}
		}
		return metric.New(metric.TotalSize, metric.Bytes, total)
	})

	out := registry.Reduce([]metric.Name{metric.TotalSize}, []metric.Metric{metric.Size(3), metric.Size(4)})
	require.Len(t, out, 1)
	assert.Equal(t, int64(7), out[0].Value)
}
