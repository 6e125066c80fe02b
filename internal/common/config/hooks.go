package config

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

var durationType = reflect.TypeOf(time.Duration(0))

// SecondsDurationHook decodes plain numbers (and numeric strings) into time.Duration as seconds, which is how
// delays and timeouts are written in configuration files. Strings with a unit ("500ms", "2m") are parsed with
// time.ParseDuration.
func SecondsDurationHook() mapstructure.DecodeHookFuncType {
	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != durationType {
			return data, nil
		}
		switch f.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(reflect.ValueOf(data).Int()) * time.Second, nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return time.Duration(reflect.ValueOf(data).Uint()) * time.Second, nil
		case reflect.Float32, reflect.Float64:
			return time.Duration(reflect.ValueOf(data).Float() * float64(time.Second)), nil
		case reflect.String:
			s := strings.TrimSpace(data.(string))
			if s == "" {
				return time.Duration(0), nil
			}
			if secs, err := strconv.ParseFloat(s, 64); err == nil {
				return time.Duration(secs * float64(time.Second)), nil
			}
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, errors.Errorf("invalid duration %q", s)
			}
			return d, nil
		}
		return data, nil
	}
}

// Decode decodes a loosely typed map (as found in YAML) into out, converting seconds to durations.
// Unknown keys are ignored.
func Decode(input map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       SecondsDurationHook(),
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(decoder.Decode(input))
}
