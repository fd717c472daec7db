package play

import (
	"fmt"
	"strings"
)

// Event category of a play, using the upstream feed's event names (eg, "Single", "Home Run").
type OutcomeKind string

const (
	Single      OutcomeKind = "Single"
	Double      OutcomeKind = "Double"
	Triple      OutcomeKind = "Triple"
	HomeRun     OutcomeKind = "Home Run"
	Walk        OutcomeKind = "Walk"
	IntentWalk  OutcomeKind = "Intent Walk"
	HitByPitch  OutcomeKind = "Hit By Pitch"
	StolenBase  OutcomeKind = "Stolen Base"
	StolenBase2 OutcomeKind = "Stolen Base 2B"
	StolenBase3 OutcomeKind = "Stolen Base 3B"
	StolenHome  OutcomeKind = "Stolen Base Home"
	Groundout   OutcomeKind = "Groundout"
	Flyout      OutcomeKind = "Flyout"
	Strikeout   OutcomeKind = "Strikeout"
	Pending     OutcomeKind = "Pending"
)

// Pending kinds show up with varying capitalization depending on the feed revision.
func (k OutcomeKind) IsPending() bool {
	return strings.EqualFold(string(k), string(Pending))
}

type Half string

const (
	Top    Half = "top"
	Bottom Half = "bottom"
)

// Short single-letter form, as used in console lines ("3T", "9B").
func (h Half) Short() string {
	switch h {
	case Top:
		return "T"
	case Bottom:
		return "B"
	default:
		return "?"
	}
}

// Record is an immutable snapshot of one play. Optional fields are pointers; nil means the
// feed did not include the field.
type Record struct {
	Identifier     string
	SequenceIndex  *int
	ActorName      string
	ActorID        *int64
	ActingEntityID *int64
	OutcomeKind    OutcomeKind
	OutcomeText    string
	ScoreDelta     int
	Period         int
	Half           Half
}

// A record with no outcome kind, no description, or a pending kind is never acted on.
func (r *Record) Actionable() bool {
	if r.OutcomeKind == "" || r.OutcomeText == "" {
		return false
	}
	return !r.OutcomeKind.IsPending()
}

// Usable reports whether there is enough of the record to derive any identity at all.
// Records failing this are dropped by the engine before identity resolution.
func (r *Record) Usable() bool {
	return r.Identifier != "" || r.SequenceIndex != nil || r.ActorName != "" || r.ActorID != nil
}

// Position of the play in the game, eg "3T". Unknown periods render as "?".
func (r *Record) Inning() string {
	if r.Period <= 0 {
		return "?" + r.Half.Short()
	}
	return fmt.Sprintf("%d%s", r.Period, r.Half.Short())
}

func (r *Record) String() string {
	actor := r.ActorName
	if actor == "" {
		actor = "Unknown"
	}
	kind := string(r.OutcomeKind)
	if kind == "" {
		kind = "Unknown"
	}
	return fmt.Sprintf("[%s] %s - %s", r.Inning(), actor, strings.ToUpper(kind))
}

// Helpers for building optional fields, mostly useful in tests and adapters.
func Int(v int) *int { return &v }

func Int64(v int64) *int64 { return &v }
