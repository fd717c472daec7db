package util

import (
	"fmt"
	"time"
)

const ISO8601 = "2006-01-02T15:04:05.000Z"

const ISO8601_milli = "2006-01-02T15:04:05.000000Z"

const ISO8601_numtz = "2006-01-02T15:04:05.000-07:00"

const ISO8601_sec = "2006-01-02T15:04:05Z"

const ISO8601_numtz_sec = "2006-01-02T15:04:05-07:00"

var timestampLayouts = []string{ISO8601, ISO8601_milli, ISO8601_numtz, ISO8601_sec, ISO8601_numtz_sec}

// ParseTimestamp accepts the timestamp variants seen from the stats API and Bluesky.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse %q as timestamp", s)
}

// FormatTimestamp renders t in UTC with millisecond precision, as record createdAt fields want.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(ISO8601)
}
