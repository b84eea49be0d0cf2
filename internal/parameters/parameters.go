// Package parameters parses configuration strings like "expert,bombs=80" into Params, a
// map[string]string of keys to values, and converts the values to typed settings.
//
// Keys without "=" are kept with an empty value, and are used as named switches (e.g. a
// preset name).
package parameters

import (
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params represent generic configuration parameters.
type Params map[string]string

// NewFromConfigString parses the comma separated "key=value" pairs of config.
// Whitespace around keys and values is ignored, and so are empty parts.
//
// It returns an error if a key is empty or repeated.
func NewFromConfigString(config string) (Params, error) {
	params := make(Params)
	for part := range strings.SplitSeq(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=") // Values may contain "=".
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" {
			return nil, errors.Errorf("empty key in configuration part %q of %q", part, config)
		}
		if _, found := params[key]; found {
			return nil, errors.Errorf("configuration key %q set more than once in %q", key, config)
		}
		params[key] = value
	}
	return params, nil
}

// PopParamOr is like GetParamOr, but it also deletes from the params map the retrieved parameter.
func PopParamOr[T interface{ bool | int | string }](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetParamOr attempts to parse a parameter to the given type if the key is present, or returns the defaultValue
// if not.
//
// For bool types, a key without a value is interpreted as true.
func GetParamOr[T interface{ bool | int | string }](params Params, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	var t T
	toT := func(v any) T { return v.(T) }
	switch any(defaultValue).(type) {
	case string:
		return toT(value), nil
	case int:
		if value == "" {
			return t, errors.Errorf("configuration %q requires an integer value", key)
		}
		parsedValue, err := strconv.Atoi(value)
		if err != nil {
			return t, errors.Wrapf(err, "failed to parse configuration %s=%q to int", key, value)
		}
		return toT(parsedValue), nil
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1": // Empty value is considered "true"
			return toT(true), nil
		case "false", "0":
			return toT(false), nil
		}
		return defaultValue, errors.Errorf("failed to parse configuration %s=%q to bool", key, value)
	}
	return defaultValue, nil
}

// Switches returns the sorted keys given without a value.
func (p Params) Switches() []string {
	var keys []string
	for key, value := range p {
		if value == "" {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys
}

// CheckAllUsed returns an error listing the keys still in params, after all known ones
// were popped.
func (p Params) CheckAllUsed() error {
	if len(p) == 0 {
		return nil
	}
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return errors.Errorf("unknown configuration parameters: %q", keys)
}
