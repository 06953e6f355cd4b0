// Package payload resolves logical fields out of the backend's raw JSON
// payloads. The backend represents the same concept under many different
// field names and shapes, so every read goes through an ordered
// candidate-key list instead of a single struct tag.
package payload

import (
	"strconv"
	"strings"
)

// Resolve walks candidate keys in order against a decoded JSON record and
// returns the first value that is neither nil nor an empty string. Keys may
// be dotted paths; a numeric path segment indexes into an array, e.g.
// "accepted_inspectors.0.amount".
//
// Resolve never panics. When no candidate resolves it returns nil and the
// caller renders an explicit placeholder instead.
func Resolve(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v := lookupPath(record, key); !isEmpty(v) {
			return v
		}
	}
	return nil
}

// ResolveString resolves the first candidate and renders it as a string.
// Numeric values are formatted without a trailing ".0"; anything
// unresolvable yields the empty string.
func ResolveString(record map[string]any, keys ...string) string {
	return asString(Resolve(record, keys...))
}

// ResolveFloat resolves the first candidate that parses as a number.
// Returns (0, false) when nothing resolves.
func ResolveFloat(record map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		v := lookupPath(record, key)
		if isEmpty(v) {
			continue
		}
		if f, ok := asFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// ResolveInt resolves the first candidate that parses as an integer.
// Returns (0, false) when nothing resolves.
func ResolveInt(record map[string]any, keys ...string) (int, bool) {
	if f, ok := ResolveFloat(record, keys...); ok {
		return int(f), true
	}
	return 0, false
}

// lookupPath walks a dotted path through nested maps and arrays
func lookupPath(record map[string]any, path string) any {
	var current any = record
	for _, seg := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil
			}
			current = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

// isEmpty reports whether a resolved value counts as absent
func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10)
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
