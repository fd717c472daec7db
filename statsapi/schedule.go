package statsapi

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/wadelive/wade/engine"
)

type ScheduleEntry struct {
	Date   string `json:"date"`
	OffDay bool   `json:"off_day"`
}

// ScheduleFile is a static season calendar. The driver only looks for a game on dates listed
// here which aren't off days.
type ScheduleFile struct {
	days map[string]bool
	loc  *time.Location
}

var _ engine.Schedule = (*ScheduleFile)(nil)

// LoadScheduleFile reads a JSON list of {"date": "YYYY-MM-DD", "off_day": bool}. Dates are
// compared in loc (UTC if nil).
func LoadScheduleFile(p string, loc *time.Location) (*ScheduleFile, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var entries []ScheduleEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parsing schedule file %s: %w", p, err)
	}
	return NewScheduleFile(entries, loc)
}

func NewScheduleFile(entries []ScheduleEntry, loc *time.Location) (*ScheduleFile, error) {
	if loc == nil {
		loc = time.UTC
	}
	days := make(map[string]bool, len(entries))
	for _, e := range entries {
		if _, err := time.Parse(time.DateOnly, e.Date); err != nil {
			return nil, fmt.Errorf("bad schedule date %q: %w", e.Date, err)
		}
		// a date listed twice is a game day if either entry says so
		days[e.Date] = days[e.Date] || !e.OffDay
	}
	return &ScheduleFile{days: days, loc: loc}, nil
}

func (s *ScheduleFile) MayHaveEvent(ctx context.Context, now time.Time) (bool, error) {
	return s.days[now.In(s.loc).Format(time.DateOnly)], nil
}

// GameDays returns the number of listed game days.
func (s *ScheduleFile) GameDays() int {
	n := 0
	for _, ok := range s.days {
		if ok {
			n++
		}
	}
	return n
}
