// Package values converts loosely typed configuration values. Settings
// typed on the command line arrive as strings, TOML numbers as int64 and
// arrays as []any; the helpers accept all of them and return the zero
// value for anything they cannot convert.
package values

import (
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// String formats scalars. Slices and tables give "".
func String(v any) string {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return cast.ToString(v)
	}
	return ""
}

// Int parses decimal strings and truncates floats. Booleans give 0.
func Int(v any) int {
	switch x := v.(type) {
	case nil, bool:
		return 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0
		}
		return n
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0
	}
	return n
}

// Bool accepts booleans, strconv.ParseBool strings and numbers, where any
// non-zero number is true.
func Bool(v any) bool {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

// StringSlice accepts string arrays and comma-separated strings. Non-string
// array items and blank entries are dropped.
func StringSlice(v any) []string {
	var out []string
	switch x := v.(type) {
	case []string:
		out = append(out, x...)
	case []any:
		out = make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		for part := range strings.SplitSeq(x, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
