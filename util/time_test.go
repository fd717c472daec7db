package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimeParsing(t *testing.T) {
	good := []string{
		"2025-04-01T21:54:14.165300Z",
		"2025-04-01T21:54:14.163Z",
		"2025-04-01T21:52:02.000+00:00",
		"2025-04-01T20:05:00Z",
		"2025-04-01T13:05:00-07:00",
	}

	for _, g := range good {
		_, err := ParseTimestamp(g)
		assert.NoError(t, err, g)
	}

	_, err := ParseTimestamp("April 1st")
	assert.Error(t, err)
}

func TestFormatTimestamp(t *testing.T) {
	pacific := time.FixedZone("PDT", -7*60*60)
	ts := time.Date(2025, 4, 1, 13, 5, 0, 123456789, pacific)
	assert.Equal(t, "2025-04-01T20:05:00.123Z", FormatTimestamp(ts))
}
