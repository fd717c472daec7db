package engine

import (
	"time"
)

type State string

const (
	StateIdle       State = "idle"
	StateLocating   State = "locating"
	StateMonitoring State = "monitoring"
	StateExhausted  State = "exhausted"
	StateStopped    State = "stopped"
)

const activityLogSize = 50

// Status is a read-only snapshot of the driver, safe to hand to other goroutines. None of it is
// authoritative; it is for humans and health checks.
type Status struct {
	Mode            Mode      `json:"mode"`
	State           State     `json:"state"`
	EventID         string    `json:"eventId,omitempty"`
	PostsMade       int64     `json:"postsMade"`
	EscalationsMade int64     `json:"escalationsMade"`
	RateLimited     int64     `json:"rateLimited"`
	LastBatchSize   int       `json:"lastBatchSize"`
	LedgerSize      int       `json:"ledgerSize"`
	DroughtCount    int       `json:"droughtCount"`
	LastPollAt      time.Time `json:"lastPollAt,omitempty"`
	Activity        []string  `json:"activity"`
}

// Status returns the most recently published snapshot.
func (d *Driver) Status() Status {
	s := d.status.Load()
	if s == nil {
		return Status{Mode: d.cfg.Mode, State: StateIdle}
	}
	return *s
}

// publishStatus copies driver-owned counters into a fresh snapshot. Called only from the driver
// goroutine.
func (d *Driver) publishStatus() {
	s := Status{
		Mode:            d.cfg.Mode,
		State:           d.state,
		PostsMade:       d.postsMade,
		EscalationsMade: d.escalationsMade,
		RateLimited:     d.rateLimited,
		LastBatchSize:   d.lastBatchSize,
		LastPollAt:      d.lastPollAt,
		Activity:        append([]string(nil), d.activity...),
	}
	if d.session != nil {
		s.EventID = d.session.EventID
		s.LedgerSize = d.session.Ledger.Len()
		s.DroughtCount = d.session.Drought.Count()
	}
	d.status.Store(&s)
}

func (d *Driver) logActivity(line string) {
	d.activity = append(d.activity, d.now().UTC().Format(time.DateTime)+" "+line)
	if len(d.activity) > activityLogSize {
		d.activity = append(d.activity[:0], d.activity[len(d.activity)-activityLogSize:]...)
	}
}
