package engine

import (
	"context"
	"errors"
	"time"

	"github.com/wadelive/wade/play"
)

var ErrInvalidConfig = errors.New("invalid engine config")

// Batch is the current ordered list of plays for an event. Batches are snapshots, not deltas:
// each fetch returns everything the feed knows, and may even shrink after a feed correction.
type Batch struct {
	EventID string
	Plays   []play.Record
	// no more plays will ever show up for this event
	Final bool
}

type Feed interface {
	// LocateEvent finds the event to monitor right now, if any.
	LocateEvent(ctx context.Context) (eventID string, found bool, err error)
	FetchPlays(ctx context.Context, eventID string) (*Batch, error)
}

// Implemented by replay feeds which can start over from the first play.
type Rewinder interface {
	Rewind()
}

// Schedule gates the Idle state: it answers whether an event might be on at all, before asking
// the feed to locate one.
type Schedule interface {
	MayHaveEvent(ctx context.Context, now time.Time) (bool, error)
}

type Composer interface {
	Compose(ctx context.Context, source string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, text string) error
}
