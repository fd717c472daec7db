package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/wadelive/wade/play"
	"github.com/wadelive/wade/roster"
)

const giantsID = int64(137)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptFeed hands out a fixed list of batches, one per fetch. Once the script runs out it
// keeps returning the last batch.
type scriptFeed struct {
	mu       sync.Mutex
	eventID  string
	batches  []*Batch
	errs     map[int]error
	fetches  int
	locates  int
	rewinds  int
	onFetch  func(n int)
	notFound bool
}

func (f *scriptFeed) LocateEvent(ctx context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locates++
	if f.notFound {
		return "", false, nil
	}
	return f.eventID, true, nil
}

func (f *scriptFeed) FetchPlays(ctx context.Context, eventID string) (*Batch, error) {
	f.mu.Lock()
	n := f.fetches
	f.fetches++
	cb := f.onFetch
	f.mu.Unlock()
	if cb != nil {
		cb(n)
	}
	if err, ok := f.errs[n]; ok {
		return nil, err
	}
	if len(f.batches) == 0 {
		return &Batch{EventID: eventID}, nil
	}
	i := n
	if i >= len(f.batches) {
		i = len(f.batches) - 1
	}
	return f.batches[i], nil
}

func (f *scriptFeed) Rewind() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rewinds++
	f.fetches = 0
	f.errs = nil
}

type fakeComposer struct {
	err     error
	sources []string
}

func (c *fakeComposer) Compose(ctx context.Context, source string) (string, error) {
	c.sources = append(c.sources, source)
	if c.err != nil {
		return "", c.err
	}
	return "wow: " + source, nil
}

type fakePublisher struct {
	mu    sync.Mutex
	err   error
	posts []string
}

func (p *fakePublisher) Publish(ctx context.Context, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.posts = append(p.posts, text)
	return nil
}

func (p *fakePublisher) Posts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posts...)
}

type fakeSchedule struct {
	answers []bool
	calls   int
}

func (s *fakeSchedule) MayHaveEvent(ctx context.Context, now time.Time) (bool, error) {
	s.calls++
	if len(s.answers) == 0 {
		return false, fmt.Errorf("no schedule")
	}
	a := s.answers[0]
	if len(s.answers) > 1 {
		s.answers = s.answers[1:]
	}
	return a, nil
}

// fakeClock advances only when told to
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func testRoster() *roster.Roster {
	r := roster.New()
	r.AddSubjectNames("A", "Heliot Ramos")
	if err := r.AddActor("A", "hits", "walks", "steals"); err != nil {
		panic(err)
	}
	if err := r.AddActor("Matt Chapman", "extra_base_hits"); err != nil {
		panic(err)
	}
	return r
}

func testClassifier() *Classifier {
	return &Classifier{SubjectID: giantsID, Roster: testRoster()}
}

func testConfig(feed Feed, comp Composer, pub Publisher) Config {
	return Config{
		Mode:             ModeReplay,
		Logger:           quietLogger(),
		Feed:             feed,
		Composer:         comp,
		Publisher:        pub,
		Classifier:       testClassifier(),
		SubjectName:      "Giants",
		DroughtThreshold: 8,
		RateLimit:        5,
		RateWindow:       10 * time.Minute,
		Tag:              "#SFGiants",
	}
}

// subjectPlay builds a completed subject-side plate appearance
func subjectPlay(seq int, actor string, kind play.OutcomeKind) play.Record {
	return play.Record{
		SequenceIndex:  play.Int(seq),
		ActorName:      actor,
		ActingEntityID: play.Int64(giantsID),
		OutcomeKind:    kind,
		OutcomeText:    fmt.Sprintf("%s: %s.", actor, kind),
		Period:         seq/6 + 1,
		Half:           play.Bottom,
	}
}

func opponentPlay(seq int, actor string, kind play.OutcomeKind) play.Record {
	rec := subjectPlay(seq, actor, kind)
	rec.ActingEntityID = play.Int64(119)
	rec.Half = play.Top
	return rec
}
