package http

import (
	"time"

	xutil "ReValue/pkg/util"
)

// ParseSince parses a timestamp or a look-back duration relative to now.
func ParseSince(s string, now, def time.Time) time.Time { return xutil.ParseSince(s, now, def) }
