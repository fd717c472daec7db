package statsapi

import (
	"strings"

	"github.com/wadelive/wade/play"
)

// toRecord maps one feed play onto a play record. home and away are the game's team ids, used
// to attribute the play when the feed leaves the batting team out; zero means unknown.
//
// The feed's playId is only trusted once the plate appearance is complete: an in-progress play
// keeps the same id when its result is filled in, and it must not dedup against itself.
func toRecord(p *Play, home, away int64) play.Record {
	rec := play.Record{
		ActorName:   p.Matchup.Batter.FullName,
		OutcomeKind: play.OutcomeKind(p.Result.Event),
		OutcomeText: p.Result.Description,
		ScoreDelta:  p.Result.RBI,
		Period:      p.About.Inning,
		Half:        play.Half(strings.ToLower(p.About.HalfInning)),
	}
	if p.About.IsComplete == nil || *p.About.IsComplete {
		rec.Identifier = p.PlayID
	}
	if p.About.AtBatIndex != nil {
		rec.SequenceIndex = play.Int(*p.About.AtBatIndex)
	}
	if p.Matchup.Batter.ID != 0 {
		rec.ActorID = play.Int64(p.Matchup.Batter.ID)
	}

	switch {
	case p.Team != nil && p.Team.ID != 0:
		rec.ActingEntityID = play.Int64(p.Team.ID)
	case p.Matchup.BattingTeam != nil && p.Matchup.BattingTeam.ID != 0:
		rec.ActingEntityID = play.Int64(p.Matchup.BattingTeam.ID)
	case rec.Half == play.Top && away != 0:
		rec.ActingEntityID = play.Int64(away)
	case rec.Half == play.Bottom && home != 0:
		rec.ActingEntityID = play.Int64(home)
	}
	return rec
}

func toRecords(plays []Play, home, away int64) []play.Record {
	out := make([]play.Record, 0, len(plays))
	for i := range plays {
		out = append(out, toRecord(&plays[i], home, away))
	}
	return out
}

// plays returns the play list from either file layout
func (f *LiveFeed) plays() []Play {
	if len(f.LiveData.Plays.AllPlays) > 0 {
		return f.LiveData.Plays.AllPlays
	}
	return f.AllPlays
}
