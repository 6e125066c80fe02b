// Package report persists the outcome of scenario runs.
package report

import (
	"encoding/json"
	"math"
	"time"

	"github.com/yasube/yasube/internal/yasube/metric"
)

// DateLayout renders record dates as ISO 8601 with microseconds and a numeric offset.
const DateLayout = "2006-01-02T15:04:05.000000-07:00"

// Record is the persisted output of one scenario run.
type Record struct {
	TestName  string
	StartDate time.Time
	EndDate   time.Time
	// Seconds, rounded to two decimals.
	Duration float64
	Metrics  []metric.Metric
}

// NewRecord builds the record of a run spanning start to end.
func NewRecord(testName string, start, end time.Time, metrics []metric.Metric) Record {
	if metrics == nil {
		metrics = []metric.Metric{}
	}
	return Record{
		TestName:  testName,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
		Duration:  math.RoundToEven(end.Sub(start).Seconds()*100) / 100,
		Metrics:   metrics,
	}
}

// Empty reports whether the run produced no metrics, as happens when a scenario ends on an empty or invalid
// listing.
func (r Record) Empty() bool {
	return len(r.Metrics) == 0
}

type recordJSON struct {
	TestName  string          `json:"testName"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Duration  float64         `json:"duration"`
	Metrics   []metric.Metric `json:"metrics"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	metrics := r.Metrics
	if metrics == nil {
		metrics = []metric.Metric{}
	}
	return json.Marshal(recordJSON{
		TestName:  r.TestName,
		StartDate: r.StartDate.Format(DateLayout),
		EndDate:   r.EndDate.Format(DateLayout),
		Duration:  r.Duration,
		Metrics:   metrics,
	})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := time.Parse(DateLayout, raw.StartDate)
	if err != nil {
		return err
	}
	end, err := time.Parse(DateLayout, raw.EndDate)
	if err != nil {
		return err
	}
	*r = Record{
		TestName:  raw.TestName,
		StartDate: start,
		EndDate:   end,
		Duration:  raw.Duration,
		Metrics:   raw.Metrics,
	}
	return nil
}
