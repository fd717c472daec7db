package roster

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wadelive/wade/play"
)

// Named groups of outcome kinds which roster entries can refer to instead of listing kinds.
var Groups = map[string][]play.OutcomeKind{
	"hits":            {play.Single, play.Double, play.Triple, play.HomeRun},
	"extra_base_hits": {play.Double, play.Triple, play.HomeRun},
	"walks":           {play.Walk, play.HitByPitch},
	"steals":          {play.StolenBase, play.StolenBase2, play.StolenBase3, play.StolenHome},
}

// Roster is the static table of actors the bot cares about: which outcome kinds make each
// priority actor noteworthy, and which names count as the subject side when the feed omits
// team attribution.
//
// Read-only once built; safe to share between sessions.
type Roster struct {
	actors  map[string]map[play.OutcomeKind]bool
	subject map[string]bool
}

func New() *Roster {
	return &Roster{
		actors:  make(map[string]map[play.OutcomeKind]bool),
		subject: make(map[string]bool),
	}
}

// Adds (or extends) an actor's noteworthy set. Each entry is either a group name from Groups or
// a literal outcome kind.
func (r *Roster) AddActor(name string, kinds ...string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("roster actor name is empty")
	}
	set, ok := r.actors[name]
	if !ok {
		set = make(map[play.OutcomeKind]bool)
	}
	for _, s := range kinds {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if group, ok := Groups[strings.ToLower(s)]; ok {
			for _, k := range group {
				set[k] = true
			}
			continue
		}
		set[play.OutcomeKind(s)] = true
	}
	if len(set) == 0 {
		return fmt.Errorf("roster actor %q has no noteworthy outcomes", name)
	}
	r.actors[name] = set
	return nil
}

func (r *Roster) AddSubjectNames(names ...string) {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			r.subject[n] = true
		}
	}
}

// Noteworthy reports whether actor is a priority actor and kind is in their configured set.
func (r *Roster) Noteworthy(actor string, kind play.OutcomeKind) bool {
	set, ok := r.actors[actor]
	if !ok {
		return false
	}
	return set[kind]
}

// Case-insensitive check against the subject-side name list.
func (r *Roster) OnSubjectSide(actor string) bool {
	return r.subject[strings.ToLower(strings.TrimSpace(actor))]
}

// Sorted priority actor names, for logging.
func (r *Roster) Actors() []string {
	out := make([]string, 0, len(r.actors))
	for name := range r.actors {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
