package frontmatter

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order for string dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// String returns fields[key] as a trimmed string, or "" when absent.
func String(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Bool returns fields[key] as a bool. Strings "true"/"yes" count as true.
func Bool(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "true" || s == "yes"
	default:
		return false
	}
}

// Strings returns fields[key] as a string slice. A single string becomes a
// one-element slice.
func Strings(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// Date returns fields[key] as a time. YAML timestamps decode to time.Time
// already; strings are parsed with common layouts. ok is false when the key is
// absent, and err is set when it is present but unparseable.
func Date(fields map[string]any, key string) (t time.Time, ok bool, err error) {
	switch v := fields[key].(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return v, true, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true, nil
			}
		}
		return time.Time{}, false, fmt.Errorf("field %q: unrecognized date %q", key, s)
	default:
		return time.Time{}, false, fmt.Errorf("field %q: expected date, got %T", key, v)
	}
}
