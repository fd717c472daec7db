package statsapi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/wadelive/wade/engine"
	"github.com/wadelive/wade/play"
)

// GameFile is a saved game: either a whole live feed document, or {"allPlays": [...]}.
type GameFile struct {
	EventID string
	Plays   []play.Record
}

// LoadGameFile reads a saved game. The event id is the gamePk if the file has one, otherwise
// the file name without extension.
func LoadGameFile(p string) (*GameFile, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var feed LiveFeed
	if err := json.Unmarshal(b, &feed); err != nil {
		return nil, fmt.Errorf("parsing game file %s: %w", p, err)
	}
	plays := feed.plays()
	if len(plays) == 0 {
		return nil, fmt.Errorf("game file %s has no plays", p)
	}

	eventID := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
	if feed.GamePk != 0 {
		eventID = strconv.FormatInt(feed.GamePk, 10)
	}
	return &GameFile{
		EventID: eventID,
		Plays:   toRecords(plays, feed.GameData.Teams.Home.ID, feed.GameData.Teams.Away.ID),
	}, nil
}

// ReplaySource feeds a saved game to the driver as if it were live: each fetch reveals one more
// play, and the batch which contains the last play is final.
type ReplaySource struct {
	game *GameFile

	lk       sync.Mutex
	revealed int
	step     int
}

var (
	_ engine.Feed     = (*ReplaySource)(nil)
	_ engine.Rewinder = (*ReplaySource)(nil)
)

// NewReplaySource reveals step plays per fetch; anything below one means one.
func NewReplaySource(game *GameFile, step int) *ReplaySource {
	if step < 1 {
		step = 1
	}
	return &ReplaySource{game: game, step: step}
}

func (r *ReplaySource) LocateEvent(ctx context.Context) (string, bool, error) {
	return r.game.EventID, true, nil
}

func (r *ReplaySource) FetchPlays(ctx context.Context, eventID string) (*engine.Batch, error) {
	if eventID != r.game.EventID {
		return nil, fmt.Errorf("replay has no event %q", eventID)
	}
	r.lk.Lock()
	defer r.lk.Unlock()

	r.revealed += r.step
	if r.revealed > len(r.game.Plays) {
		r.revealed = len(r.game.Plays)
	}
	// copies, so the driver can't disturb the saved game
	plays := append([]play.Record(nil), r.game.Plays[:r.revealed]...)
	return &engine.Batch{
		EventID: eventID,
		Plays:   plays,
		Final:   r.revealed == len(r.game.Plays),
	}, nil
}

// Rewind starts the replay over from the first play.
func (r *ReplaySource) Rewind() {
	r.lk.Lock()
	defer r.lk.Unlock()
	r.revealed = 0
}
