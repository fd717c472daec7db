package play

import (
	"strconv"
	"strings"
)

// Identity uniquely names a Record within one session.
type Identity string

const syntheticPrefix = "synthetic"

func (id Identity) String() string {
	return string(id)
}

// Synthetic identities are derived by ResolveIdentity rather than assigned by the feed.
func (id Identity) IsSynthetic() bool {
	return strings.HasPrefix(string(id), syntheticPrefix+"/")
}

// ResolveIdentity returns the feed-assigned identifier when there is one. Otherwise it composes
// a synthetic identity from period, half, actor (id preferred over name), outcome kind and
// sequence index. Missing fields contribute an empty component, so identical records always
// resolve to identical identities.
//
// Outcome kind is part of the synthetic identity so that an in-progress play and its completed
// version are distinct.
func ResolveIdentity(r *Record) Identity {
	if r.Identifier != "" {
		return Identity(r.Identifier)
	}

	period := ""
	if r.Period > 0 {
		period = strconv.Itoa(r.Period)
	}
	actor := r.ActorName
	if r.ActorID != nil {
		actor = strconv.FormatInt(*r.ActorID, 10)
	}
	seq := ""
	if r.SequenceIndex != nil {
		seq = strconv.Itoa(*r.SequenceIndex)
	}
	parts := []string{
		syntheticPrefix,
		period,
		string(r.Half),
		escape(actor),
		escape(string(r.OutcomeKind)),
		seq,
	}
	return Identity(strings.Join(parts, "/"))
}

// keeps free-text components from colliding with the separator
func escape(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	return strings.ReplaceAll(s, "/", "%2F")
}
