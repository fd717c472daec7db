package engine

import (
	"github.com/wadelive/wade/play"
)

// Ledger is the set of play identities already handled in a session.
//
// Not safe for concurrent use; owned by the session's driver.
type Ledger struct {
	seen map[play.Identity]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		seen: make(map[play.Identity]struct{}),
	}
}

// Admit records id and returns true, or returns false if id was already recorded.
func (l *Ledger) Admit(id play.Identity) bool {
	if _, ok := l.seen[id]; ok {
		return false
	}
	l.seen[id] = struct{}{}
	return true
}

func (l *Ledger) Len() int {
	return len(l.seen)
}

// Only for restarting a replay pass.
func (l *Ledger) Reset() {
	l.seen = make(map[play.Identity]struct{})
}
