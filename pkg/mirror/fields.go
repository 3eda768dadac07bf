package mirror

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Typed accessors for decoding remote payloads. Values arrive as whatever
// the JSON decoder or an in-memory store produced, so each accessor accepts
// the handful of shapes a field can legitimately take and reports anything
// else as an error. A missing or nil field yields the zero value.

// String returns the string value of key.
func (f Fields) String(key string) (string, error) {
	switch v := f[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

// Int returns the integer value of key. Numbers decoded from JSON arrive
// as float64 and must be integral.
func (f Fields) Int(key string) (int, error) {
	switch v := f[key].(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expected integer, got %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case string:
		if v == "" {
			return 0, nil
		}
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// Bool returns the boolean value of key. Airtable omits unchecked checkboxes.
func (f Fields) Bool(key string) (bool, error) {
	switch v := f[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}

// Strings returns the string list value of key.
func (f Fields) Strings(key string) ([]string, error) {
	switch v := f[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for i, x := range v {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("element %d: expected string, got %T", i, x)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}

// Time returns the time value of key, parsed with layout when it is a string.
func (f Fields) Time(key, layout string) (time.Time, error) {
	switch v := f[key].(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return v, nil
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		return time.Parse(layout, v)
	default:
		return time.Time{}, fmt.Errorf("expected time, got %T", v)
	}
}

// SetString sets key to s, or removes it when s is empty so that an empty
// local value never blanks a field through a partial update.
func (f Fields) SetString(key, s string) {
	if s == "" {
		delete(f, key)
		return
	}
	f[key] = s
}

// SetStrings sets key to list, or removes it when list is empty.
func (f Fields) SetStrings(key string, list []string) {
	if len(list) == 0 {
		delete(f, key)
		return
	}
	f[key] = append([]string(nil), list...)
}

// SetTime sets key to t formatted with layout, or removes it for the zero time.
func (f Fields) SetTime(key string, t time.Time, layout string) {
	if t.IsZero() {
		delete(f, key)
		return
	}
	f[key] = t.Format(layout)
}
