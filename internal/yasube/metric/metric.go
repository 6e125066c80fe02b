package metric

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimeLayout is how datetime values are written to result files.
const TimeLayout = "2006-01-02T15:04:05.000000"

// Metric is a single named measurement. Value is one of: nil, bool, string, time.Time, int64 or float64.
type Metric struct {
	Name  Name
	Unit  Unit
	Value any
}

// New builds a metric, normalising integer values to int64 and float32 to float64.
func New(name Name, unit Unit, value any) Metric {
	return Metric{Name: name, Unit: unit, Value: normalise(value)}
}

// SetValue replaces the value in place. This is the only mutation a metric supports.
func (m *Metric) SetValue(value any) {
	m.Value = normalise(value)
}

// Float returns the value as a float64 if it is numeric.
func (m Metric) Float() (float64, bool) {
	switch v := m.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// Bool returns the value if it is a boolean.
func (m Metric) Bool() (bool, bool) {
	v, ok := m.Value.(bool)
	return v, ok
}

// Time returns the value if it is a datetime.
func (m Metric) Time() (time.Time, bool) {
	v, ok := m.Value.(time.Time)
	return v, ok
}

// Serializable returns the {name, uom, value} form written to result files.
func (m Metric) Serializable() map[string]any {
	value := m.Value
	if t, ok := value.(time.Time); ok {
		value = t.UTC().Format(TimeLayout)
	}
	return map[string]any{
		"name":  string(m.Name),
		"uom":   string(m.Unit),
		"value": value,
	}
}

func (m Metric) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Serializable())
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  Name `json:"name"`
		Unit  Unit `json:"uom"`
		Value any  `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Name = raw.Name
	m.Unit = raw.Unit
	m.Value = raw.Value
	if f, ok := raw.Value.(float64); ok && f == float64(int64(f)) {
		m.Value = int64(f)
	}
	return nil
}

func (m Metric) String() string {
	return fmt.Sprintf("%s=%v%s", m.Name, m.Value, m.Unit)
}

func normalise(value any) any {
	switch v := value.(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return float64(v)
	}
	return value
}

// Flatten concatenates metric batches without merging samples that share a name.
func Flatten(batches [][]Metric) []Metric {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]Metric, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}

// Values returns the samples named n, in order.
func Values(metrics []Metric, n Name) []Metric {
	var out []Metric
	for _, m := range metrics {
		if m.Name == n {
			out = append(out, m)
		}
	}
	return out
}

// Raw sample constructors.

func StartTime(t time.Time) Metric {
	return New(StartTimeName, DateTime, t)
}

func EndTime(t time.Time) Metric {
	return New(EndTimeName, DateTime, t)
}

func HTTPStatusCode(code int) Metric {
	return New(HTTPStatusCodeName, Code, code)
}

// ResponseTime is in milliseconds; -1 marks a failed call.
func ResponseTime(ms float64) Metric {
	return New(ResponseTimeName, MS, ms)
}

// Size is in bytes; -1 marks a failed call.
func Size(bytes int64) Metric {
	return New(SizeName, Bytes, bytes)
}

func Exception(failed bool) Metric {
	return New(ExceptionName, Boolean, failed)
}

func TotalReadResults(n int) Metric {
	return New(TotalReadResultsName, Count, n)
}

// ProductRetention is in days; -1 marks a product whose dates could not be read.
func ProductRetention(days int) Metric {
	return New(ProductRetentionName, Days, days)
}
