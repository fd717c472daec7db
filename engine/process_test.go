package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadelive/wade/play"
)

func newTestDriver(t *testing.T, cfg Config) (*Driver, *Session) {
	t.Helper()
	d, err := NewDriver(cfg)
	require.NoError(t, err)
	sess, err := d.newSession("game-1")
	require.NoError(t, err)
	d.session = sess
	return d, sess
}

func TestProcessPriorityActor(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	pub := &fakePublisher{}
	d, sess := newTestDriver(t, testConfig(&scriptFeed{}, &fakeComposer{}, pub))

	// a couple of uneventful plate appearances first
	for seq := 3; seq < 5; seq++ {
		rec := subjectPlay(seq, "B", play.Groundout)
		d.processPlay(ctx, sess, &rec)
	}
	assert.Equal(2, sess.Drought.Count())

	rec := subjectPlay(5, "A", play.Single)
	res := d.processPlay(ctx, sess, &rec)
	assert.True(res.Decision.Post)
	assert.Equal("priority actor: Single", res.Decision.Reason)
	assert.True(res.Published)
	assert.Equal(MessageReaction, res.Kind)
	assert.Equal(0, sess.Drought.Count())
	assert.Equal([]string{"wow: A: Single. #SFGiants"}, pub.Posts())
}

func TestProcessNoCondition(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	pub := &fakePublisher{}
	d, sess := newTestDriver(t, testConfig(&scriptFeed{}, &fakeComposer{}, pub))

	rec := subjectPlay(6, "B", play.Groundout)
	res := d.processPlay(ctx, sess, &rec)
	assert.False(res.Decision.Post)
	assert.Equal(ReasonNoCondition, res.Decision.Reason)
	assert.Equal(1, sess.Drought.Count())
	assert.Empty(pub.Posts())

	// opponent plate appearances don't count towards the drought
	opp := opponentPlay(7, "Freddie Freeman", play.Flyout)
	d.processPlay(ctx, sess, &opp)
	assert.Equal(1, sess.Drought.Count())
}

func TestProcessIdempotent(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	pub := &fakePublisher{}
	comp := &fakeComposer{}
	d, sess := newTestDriver(t, testConfig(&scriptFeed{}, comp, pub))

	out := subjectPlay(1, "B", play.Groundout)
	res := d.processPlay(ctx, sess, &out)
	assert.False(res.Duplicate)
	assert.Equal(1, sess.Drought.Count())

	// a re-fetched copy: no drought change
	again := out
	res = d.processPlay(ctx, sess, &again)
	assert.True(res.Duplicate)
	assert.Equal(1, sess.Drought.Count())

	hr := subjectPlay(2, "C", play.HomeRun)
	hr.Identifier = "feed-id-2"
	res = d.processPlay(ctx, sess, &hr)
	assert.True(res.Published)

	// same feed identifier with an updated description is still the same play
	hr2 := hr
	hr2.OutcomeText = "C hits a grand slam (updated)."
	res = d.processPlay(ctx, sess, &hr2)
	assert.True(res.Duplicate)
	assert.Len(pub.Posts(), 1)
	assert.Len(comp.sources, 1)
}

func TestProcessUnusable(t *testing.T) {
	assert := assert.New(t)

	d, sess := newTestDriver(t, testConfig(&scriptFeed{}, &fakeComposer{}, &fakePublisher{}))
	rec := play.Record{OutcomeKind: play.Single, OutcomeText: "someone singles"}
	res := d.processPlay(context.Background(), sess, &rec)
	assert.True(res.Unusable)
	assert.Equal(0, sess.Ledger.Len())
}

func TestProcessEscalation(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	pub := &fakePublisher{}
	comp := &fakeComposer{}
	cfg := testConfig(&scriptFeed{}, comp, pub)
	cfg.DroughtThreshold = 3
	d, sess := newTestDriver(t, cfg)

	var results []PlayResult
	for seq := 0; seq < 7; seq++ {
		rec := subjectPlay(seq, "B", play.Strikeout)
		results = append(results, d.processPlay(ctx, sess, &rec))
	}
	escalations := 0
	for i, res := range results {
		if res.Escalate {
			escalations++
			assert.Equal(MessageEscalation, res.Kind, i)
			assert.True(res.Published, i)
		}
	}
	// after the 3rd and 6th plate appearance
	assert.Equal(2, escalations)
	assert.True(results[2].Escalate)
	assert.True(results[5].Escalate)
	assert.Equal(1, sess.Drought.Count())
	assert.Len(pub.Posts(), 2)
	assert.Contains(comp.sources[0], "3 straight plate appearances")
	assert.Equal(int64(2), d.escalationsMade)
	assert.Equal(int64(2), d.postsMade)
}

func TestProcessRateLimited(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	clock := &fakeClock{t: t0}
	pub := &fakePublisher{}
	cfg := testConfig(&scriptFeed{}, &fakeComposer{}, pub)
	cfg.Now = clock.Now
	d, sess := newTestDriver(t, cfg)

	// five eligible plays inside 100s
	for seq := 0; seq < 5; seq++ {
		rec := subjectPlay(seq, "A", play.Walk)
		res := d.processPlay(ctx, sess, &rec)
		assert.True(res.Published)
		clock.Advance(25 * time.Second)
	}

	// sixth at 150s: eligible but denied, still resets the drought
	clock.t = t0.Add(150 * time.Second)
	pre := subjectPlay(5, "B", play.Groundout)
	d.processPlay(ctx, sess, &pre)
	assert.Equal(1, sess.Drought.Count())

	rec := subjectPlay(6, "A", play.Double)
	res := d.processPlay(ctx, sess, &rec)
	assert.True(res.Decision.Post)
	assert.True(res.RateLimited)
	assert.False(res.Published)
	assert.Equal(0, sess.Drought.Count())
	assert.Len(pub.Posts(), 5)
	assert.Equal(5, sess.Limiter.Len())

	// the denied play is not retried
	again := rec
	assert.True(d.processPlay(ctx, sess, &again).Duplicate)

	clock.t = t0.Add(650 * time.Second)
	late := subjectPlay(7, "A", play.Triple)
	res = d.processPlay(ctx, sess, &late)
	assert.True(res.Published)
	assert.Len(pub.Posts(), 6)
	assert.Equal(int64(1), d.rateLimited)
}

func TestProcessCollaboratorFailures(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	comp := &fakeComposer{err: fmt.Errorf("model overloaded")}
	pub := &fakePublisher{}
	d, sess := newTestDriver(t, testConfig(&scriptFeed{}, comp, pub))

	rec := subjectPlay(1, "A", play.HomeRun)
	res := d.processPlay(ctx, sess, &rec)
	assert.Error(res.Err)
	assert.False(res.Published)
	assert.Equal(1, sess.Limiter.Len())

	comp.err = nil
	pub.err = fmt.Errorf("XRPC ERROR 502")
	rec2 := subjectPlay(2, "A", play.HomeRun)
	res = d.processPlay(ctx, sess, &rec2)
	assert.ErrorContains(res.Err, "XRPC ERROR 502")
	assert.False(res.Published)

	// neither play gets another attempt
	pub.err = nil
	assert.True(d.processPlay(ctx, sess, &rec).Duplicate)
	assert.True(d.processPlay(ctx, sess, &rec2).Duplicate)
	assert.Empty(pub.Posts())
	assert.Equal(int64(0), d.postsMade)
}

func TestReasonLabel(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("priority actor", reasonLabel("priority actor: Walk"))
	assert.Equal(ReasonHomeRun, reasonLabel(ReasonHomeRun))
}
