package testcase

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

const (
	ItemsKey      = "value"
	PrimaryKeyKey = "Id"
)

// Item is one entity of a list payload.
type Item map[string]any

// Items decodes the {"value": [...]} list payload. present is false when the key is missing or null.
// Numbers are kept as json.Number so that keys keep their original text.
func Items(body []byte) (items []Item, present bool, err error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	var payload map[string]json.RawMessage
	if err := decoder.Decode(&payload); err != nil {
		return nil, false, errors.Wrap(err, "decoding list payload")
	}
	raw, ok := payload[ItemsKey]
	if !ok || string(raw) == "null" {
		return nil, false, nil
	}
	decoder = json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&items); err != nil {
		return nil, false, errors.Wrapf(err, "decoding %q of list payload", ItemsKey)
	}
	return items, true, nil
}

// Key returns the primary key of the item as text.
func (i Item) Key(pkKey string) (string, bool) {
	v, ok := i[pkKey]
	if !ok || v == nil {
		return "", false
	}
	switch k := v.(type) {
	case string:
		return k, true
	case json.Number:
		return k.String(), true
	}
	return fmt.Sprint(v), true
}

// Number returns a numeric field, or def when it is missing or not a number.
func (i Item) Number(key string, def float64) float64 {
	switch v := i[key].(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}
