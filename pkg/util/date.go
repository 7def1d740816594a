package util

import (
	"strconv"
	"strings"
	"time"
)

// ParseTime accepts RFC3339 (with or without fractional seconds), a plain
// date (2006-01-02, UTC) or unix seconds.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseSince is ParseTime that also accepts a positive Go duration ("24h",
// "90m") meaning that long before now.
func ParseSince(s string, now, def time.Time) time.Time {
	if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil && d > 0 {
		return now.Add(-d)
	}
	return ParseTimeDefault(s, def)
}
