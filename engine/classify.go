package engine

import (
	"github.com/wadelive/wade/play"
	"github.com/wadelive/wade/roster"
)

const (
	ReasonIncomplete  = "incomplete"
	ReasonHomeRun     = "home run"
	ReasonScoring     = "scoring play"
	ReasonNoCondition = "no condition met"
	reasonPriority    = "priority actor: "
)

type Decision struct {
	Post   bool
	Reason string
}

// Classifier is the pure posting decision. Results depend only on the record and the
// configuration, never on earlier calls.
type Classifier struct {
	// team id of the side this bot reacts for
	SubjectID int64
	Roster    *roster.Roster
}

// SubjectSide reports whether the play belongs to the subject team: either by the feed's team
// attribution, or (when the feed leaves that out) by the actor being on the subject name list.
func (c *Classifier) SubjectSide(r *play.Record) bool {
	if r.ActingEntityID != nil && *r.ActingEntityID == c.SubjectID {
		return true
	}
	return c.Roster != nil && c.Roster.OnSubjectSide(r.ActorName)
}

// Classify runs the rule cascade; the first matching rule wins.
func (c *Classifier) Classify(r *play.Record) Decision {
	if !r.Actionable() {
		return Decision{Post: false, Reason: ReasonIncomplete}
	}

	subject := c.SubjectSide(r)
	if subject && r.OutcomeKind == play.HomeRun {
		return Decision{Post: true, Reason: ReasonHomeRun}
	}
	if subject && r.ScoreDelta > 0 {
		return Decision{Post: true, Reason: ReasonScoring}
	}
	if c.Roster != nil && c.Roster.Noteworthy(r.ActorName, r.OutcomeKind) {
		return Decision{Post: true, Reason: reasonPriority + string(r.OutcomeKind)}
	}
	return Decision{Post: false, Reason: ReasonNoCondition}
}
