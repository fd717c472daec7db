package engine

// Session is the mutable state for one monitored event, or one replay pass.
type Session struct {
	EventID string
	Ledger  *Ledger
	Drought *Drought
	Limiter *RateLimiter
}

func (d *Driver) newSession(eventID string) (*Session, error) {
	rl, err := NewRateLimiter(d.cfg.RateLimit, d.cfg.RateWindow, d.daily)
	if err != nil {
		return nil, err
	}
	return &Session{
		EventID: eventID,
		Ledger:  NewLedger(),
		Drought: NewDrought(d.cfg.DroughtThreshold),
		Limiter: rl,
	}, nil
}

// ResetForReplay clears the ledger and drought state so the same plays can be processed again.
// The rate window is kept: restarting a replay doesn't buy extra posts.
func (s *Session) ResetForReplay() {
	s.Ledger.Reset()
	s.Drought.ResetAll()
}
