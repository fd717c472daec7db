package statsapi

import (
	"time"

	"github.com/wadelive/wade/util"
)

// Wire types for the subset of the MLB Stats API this package reads. Fields the bot doesn't
// use are left out; unknown fields are ignored when decoding.

type ScheduleResponse struct {
	Dates []ScheduleDate `json:"dates"`
}

type ScheduleDate struct {
	Date  string         `json:"date"`
	Games []ScheduleGame `json:"games"`
}

type ScheduleGame struct {
	GamePk   int64        `json:"gamePk"`
	GameDate string       `json:"gameDate"`
	Status   GameStatus   `json:"status"`
	Teams    ScheduleSide `json:"teams"`
}

type ScheduleSide struct {
	Away TeamEntry `json:"away"`
	Home TeamEntry `json:"home"`
}

type TeamEntry struct {
	Team TeamRef `json:"team"`
}

type TeamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type GameStatus struct {
	AbstractGameState string `json:"abstractGameState"`
	DetailedState     string `json:"detailedState,omitempty"`
}

func (s GameStatus) IsFinal() bool {
	return s.AbstractGameState == "Final"
}

func (g *ScheduleGame) Involves(teamID int64) bool {
	return g.Teams.Home.Team.ID == teamID || g.Teams.Away.Team.ID == teamID
}

// StartTime parses gameDate. ok is false when it is missing or malformed.
func (g *ScheduleGame) StartTime() (t time.Time, ok bool) {
	t, err := util.ParseTimestamp(g.GameDate)
	return t, err == nil
}

// LiveFeed is the /feed/live document. Saved game files are either this whole document or just
// {"allPlays": [...]}.
type LiveFeed struct {
	GamePk   int64    `json:"gamePk"`
	GameData GameData `json:"gameData"`
	LiveData LiveData `json:"liveData"`
	AllPlays []Play   `json:"allPlays,omitempty"`
}

type GameData struct {
	Status GameStatus `json:"status"`
	Teams  struct {
		Away TeamRef `json:"away"`
		Home TeamRef `json:"home"`
	} `json:"teams"`
}

type LiveData struct {
	Plays struct {
		AllPlays []Play `json:"allPlays"`
	} `json:"plays"`
}

type Play struct {
	PlayID  string      `json:"playId,omitempty"`
	Result  PlayResult  `json:"result"`
	About   PlayAbout   `json:"about"`
	Matchup PlayMatchup `json:"matchup"`
	Team    *TeamRef    `json:"team,omitempty"`
}

type PlayResult struct {
	Event       string `json:"event"`
	EventType   string `json:"eventType,omitempty"`
	Description string `json:"description"`
	RBI         int    `json:"rbi"`
}

type PlayAbout struct {
	AtBatIndex *int   `json:"atBatIndex"`
	HalfInning string `json:"halfInning"`
	Inning     int    `json:"inning"`
	IsComplete *bool  `json:"isComplete"`
	EndTime    string `json:"endTime,omitempty"`
}

type PlayMatchup struct {
	Batter      PersonRef `json:"batter"`
	BattingTeam *TeamRef  `json:"battingTeam,omitempty"`
}

type PersonRef struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}
