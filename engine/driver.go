package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Mode string

const (
	ModeLive   Mode = "live"
	ModeReplay Mode = "replay"
)

type Config struct {
	Mode   Mode
	Logger *slog.Logger

	Feed Feed
	// optional; without one the driver always moves on to locating an event
	Schedule   Schedule
	Composer   Composer
	Publisher  Publisher
	Classifier *Classifier

	// used in escalation messages, eg "Giants"
	SubjectName      string
	DroughtThreshold int
	RateLimit        int
	RateWindow       time.Duration
	// approximate cap on posts per trailing day, across events; zero disables
	DailyLimit int64

	// delay between poll cycles while monitoring
	PollInterval time.Duration
	// delay before re-checking the schedule or re-locating, after finding nothing
	IdleBackoff time.Duration
	// number of passes over a replay source; zero means one
	ReplayPasses int

	// appended to posts which don't already include it
	Tag           string
	MaxPostLength int

	// for tests; defaults to time.Now
	Now func() time.Time
}

// Driver runs the Idle → Locating → Monitoring → Exhausted state machine. Run it from a single
// goroutine; Status and Stop may be called from anywhere.
type Driver struct {
	cfg    Config
	logger *slog.Logger

	// everything below is owned by the Run goroutine
	state           State
	session         *Session
	pass            int
	postsMade       int64
	escalationsMade int64
	rateLimited     int64
	lastBatchSize   int
	lastPollAt      time.Time
	activity        []string

	// shared by every session
	daily *DailyCeiling

	status   atomic.Pointer[Status]
	stop     chan struct{}
	stopOnce sync.Once
}

func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Feed == nil || cfg.Composer == nil || cfg.Publisher == nil || cfg.Classifier == nil {
		return nil, fmt.Errorf("%w: feed, composer, publisher and classifier are all required", ErrInvalidConfig)
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeLive
	}
	if cfg.Mode != ModeLive && cfg.Mode != ModeReplay {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
	}
	if cfg.RateLimit < 1 {
		return nil, fmt.Errorf("%w: rate limit must be at least 1", ErrInvalidConfig)
	}
	if cfg.RateWindow <= 0 {
		return nil, fmt.Errorf("%w: rate window must be positive", ErrInvalidConfig)
	}
	if cfg.ReplayPasses < 1 {
		cfg.ReplayPasses = 1
	}
	if cfg.MaxPostLength <= 0 {
		cfg.MaxPostLength = DefaultMaxPostLength
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	d := &Driver{
		cfg:    cfg,
		logger: logger.With("mode", string(cfg.Mode)),
		state:  StateIdle,
		daily:  NewDailyCeiling(cfg.DailyLimit),
		stop:   make(chan struct{}),
	}
	d.publishStatus()
	return d, nil
}

func (d *Driver) now() time.Time {
	return d.cfg.Now()
}

// Stop asks the driver to exit. It takes effect at the top of the next cycle (or interrupts a
// sleep); a batch in progress is always finished first.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

func (d *Driver) stopped(ctx context.Context) bool {
	select {
	case <-d.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// sleep returns false if interrupted by Stop or context cancellation
func (d *Driver) sleep(ctx context.Context, dur time.Duration) bool {
	if dur <= 0 {
		return !d.stopped(ctx)
	}
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-d.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (d *Driver) setState(s State) {
	if d.state != s {
		d.logger.Info("driver state change", "from", d.state, "to", s)
	}
	d.state = s
	d.publishStatus()
}

// Run drives the state machine until the replay source is exhausted, Stop is called, or ctx is
// done. Cycle failures never end the loop; the only errors returned are from building session
// state.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info("driver starting")
	for {
		if d.stopped(ctx) {
			d.setState(StateStopped)
			d.logger.Info("driver stopped")
			return nil
		}
		var err error
		switch d.state {
		case StateIdle:
			d.stepIdle(ctx)
		case StateLocating:
			err = d.stepLocating(ctx)
		case StateMonitoring:
			d.stepMonitoring(ctx)
		case StateExhausted:
			d.logger.Info("replay exhausted", "posts", d.postsMade, "escalations", d.escalationsMade)
			return nil
		default:
			return fmt.Errorf("unexpected driver state: %s", d.state)
		}
		if err != nil {
			return err
		}
	}
}

func (d *Driver) stepIdle(ctx context.Context) {
	if d.cfg.Schedule == nil || d.cfg.Mode == ModeReplay {
		d.setState(StateLocating)
		return
	}
	ok, err := d.cfg.Schedule.MayHaveEvent(ctx, d.now())
	if err != nil {
		pollErrors.WithLabelValues("schedule").Inc()
		d.logger.Error("schedule check failed", "err", err)
	}
	if ok {
		d.setState(StateLocating)
		return
	}
	d.logger.Info("no event scheduled, sleeping", "backoff", d.cfg.IdleBackoff)
	d.sleep(ctx, d.cfg.IdleBackoff)
}

func (d *Driver) stepLocating(ctx context.Context) error {
	eventID, found, err := d.cfg.Feed.LocateEvent(ctx)
	if err != nil {
		pollErrors.WithLabelValues("locate").Inc()
		d.logger.Error("failed to locate event", "err", err)
	}
	if err != nil || !found {
		if err == nil {
			d.logger.Info("no event found, sleeping", "backoff", d.cfg.IdleBackoff)
		}
		d.setState(StateIdle)
		d.sleep(ctx, d.cfg.IdleBackoff)
		return nil
	}

	if d.session == nil || d.session.EventID != eventID {
		sess, err := d.newSession(eventID)
		if err != nil {
			return err
		}
		d.session = sess
		d.pass = 1
		d.logActivity(fmt.Sprintf("monitoring event %s", eventID))
	}
	d.logger.Info("monitoring event", "event", eventID)
	d.setState(StateMonitoring)
	return nil
}

func (d *Driver) stepMonitoring(ctx context.Context) {
	batch := d.runCycle(ctx)
	d.publishStatus()

	if batch != nil && batch.Final {
		if d.cfg.Mode == ModeReplay {
			if d.pass < d.cfg.ReplayPasses {
				d.pass++
				d.logger.Info("restarting replay", "pass", d.pass, "passes", d.cfg.ReplayPasses)
				d.session.ResetForReplay()
				if rw, ok := d.cfg.Feed.(Rewinder); ok {
					rw.Rewind()
				}
				d.sleep(ctx, d.cfg.PollInterval)
				return
			}
			d.setState(StateExhausted)
			return
		}
		d.logger.Info("event is final", "event", d.session.EventID, "posts", d.postsMade)
		d.logActivity(fmt.Sprintf("event %s final", d.session.EventID))
		d.setState(StateIdle)
		d.sleep(ctx, d.cfg.IdleBackoff)
		return
	}
	d.sleep(ctx, d.cfg.PollInterval)
}

// runCycle fetches and processes one batch. Failures are logged and the cycle counts as an
// empty batch; a panic anywhere in the cycle is recovered here.
func (d *Driver) runCycle(ctx context.Context) (batch *Batch) {
	eventID := d.session.EventID
	ctx, span := tracer.Start(ctx, "pollCycle", trace.WithAttributes(
		attribute.String("event", eventID),
		attribute.String("mode", string(d.cfg.Mode)),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			pollErrors.WithLabelValues("panic").Inc()
			d.logger.Error("poll cycle exception", "err", r, "event", eventID)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			batch = nil
		}
	}()

	pollCycles.Inc()
	d.lastPollAt = d.now()
	batch, err := d.cfg.Feed.FetchPlays(ctx, eventID)
	if err != nil {
		pollErrors.WithLabelValues("fetch").Inc()
		d.logger.Error("failed to fetch plays", "err", err, "event", eventID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return nil
	}

	d.lastBatchSize = len(batch.Plays)
	lastBatchSize.Set(float64(len(batch.Plays)))
	span.SetAttributes(attribute.Int("plays", len(batch.Plays)))
	d.logger.Debug("fetched plays", "event", eventID, "count", len(batch.Plays), "final", batch.Final)

	for i := range batch.Plays {
		d.processPlay(ctx, d.session, &batch.Plays[i])
	}
	droughtCount.Set(float64(d.session.Drought.Count()))
	return batch
}
