package engine

import (
	"fmt"
	"time"

	"github.com/RussellLuo/slidingwindow"
)

// RateLimiter bounds the number of messages published over a trailing window. The window is
// an exact log of admission times. An optional DailyCeiling, shared with other sessions, is
// checked on top.
//
// Not safe for concurrent use; owned by the session's driver.
type RateLimiter struct {
	limit  int
	window time.Duration
	stamps []time.Time
	daily  *DailyCeiling
}

func windowFunc() (slidingwindow.Window, slidingwindow.StopFunc) {
	return slidingwindow.NewLocalWindow()
}

// DailyCeiling is an approximate cap on posts over a trailing day, using a sliding window
// counter. It outlives sessions, so a doubleheader shares one day's allowance.
type DailyCeiling struct {
	limiter *slidingwindow.Limiter
}

// NewDailyCeiling returns nil when limit is zero or negative. A nil ceiling allows everything.
func NewDailyCeiling(limit int64) *DailyCeiling {
	if limit <= 0 {
		return nil
	}
	lim, _ := slidingwindow.NewLimiter(24*time.Hour, limit, windowFunc)
	return &DailyCeiling{limiter: lim}
}

// slidingwindow only counts allowed requests, so a denial doesn't consume anything
func (c *DailyCeiling) Allow(now time.Time) bool {
	if c == nil {
		return true
	}
	return c.limiter.AllowN(now, 1)
}

// NewRateLimiter admits at most limit messages per window, and only while daily (which may be
// nil) allows it.
func NewRateLimiter(limit int, window time.Duration, daily *DailyCeiling) (*RateLimiter, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: rate limit must be at least 1, got %d", ErrInvalidConfig, limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: rate window must be positive, got %s", ErrInvalidConfig, window)
	}
	rl := &RateLimiter{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
		daily:  daily,
	}
	return rl, nil
}

// TryAdmit prunes expired entries and admits now if there is room. A denial leaves the window
// unchanged.
func (rl *RateLimiter) TryAdmit(now time.Time) bool {
	rl.prune(now)
	if len(rl.stamps) >= rl.limit {
		return false
	}
	if !rl.daily.Allow(now) {
		return false
	}
	rl.stamps = append(rl.stamps, now)
	return true
}

// entries exactly one window old are expired
func (rl *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.stamps) && !rl.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		rl.stamps = append(rl.stamps[:0], rl.stamps[i:]...)
	}
}

// Number of admissions currently held in the window (as of the last admission check).
func (rl *RateLimiter) Len() int {
	return len(rl.stamps)
}

func (rl *RateLimiter) Limit() int {
	return rl.limit
}

func (rl *RateLimiter) Window() time.Duration {
	return rl.window
}
