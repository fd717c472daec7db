package bsky

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/wadelive/wade/engine"
)

// LogPublisher appends every post to a writer as "[2006-01-02 15:04:05] text". With a Next
// publisher it logs only what Next accepted; without one it is a dry run.
type LogPublisher struct {
	Out  io.Writer
	Next engine.Publisher
	Now  func() time.Time

	lk sync.Mutex
}

var _ engine.Publisher = (*LogPublisher)(nil)

func (l *LogPublisher) Publish(ctx context.Context, text string) error {
	if l.Next != nil {
		if err := l.Next.Publish(ctx, text); err != nil {
			return err
		}
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	l.lk.Lock()
	defer l.lk.Unlock()
	_, err := fmt.Fprintf(l.Out, "[%s] %s\n", now().UTC().Format(time.DateTime), text)
	return err
}
