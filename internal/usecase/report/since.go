package report

import (
	"fmt"
	"strings"
	"time"
)

// ParseSince reads the lower time bound of a result query: a duration back
// from now (168h), a date (2025-01-31, local time) or an RFC 3339 timestamp.
// An empty value means no bound.
func ParseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(raw); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("since must not be negative: %s", raw)
		}
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(time.DateOnly, raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse since %q: want a duration, a date or an RFC 3339 time", raw)
}
