package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v2"

	"github.com/wadelive/wade/bsky"
	"github.com/wadelive/wade/compose"
	"github.com/wadelive/wade/engine"
	"github.com/wadelive/wade/play"
	"github.com/wadelive/wade/roster"
	"github.com/wadelive/wade/statsapi"
	"github.com/wadelive/wade/util/svcutil"
)

func loadRoster(cctx *cli.Context, logger *slog.Logger) (*roster.Roster, error) {
	p := cctx.String("roster-file")
	if p == "" {
		return roster.Default(), nil
	}
	r, err := roster.LoadFile(p)
	if err != nil {
		return nil, fmt.Errorf("loading roster: %w", err)
	}
	logger.Info("loaded roster", "path", p, "actors", len(r.Actors()))
	return r, nil
}

func buildClassifier(cctx *cli.Context, logger *slog.Logger) (*engine.Classifier, error) {
	r, err := loadRoster(cctx, logger)
	if err != nil {
		return nil, err
	}
	return &engine.Classifier{SubjectID: cctx.Int64("subject-id"), Roster: r}, nil
}

// buildComposer returns the model-backed composer, or (when allowed) the passthrough one if no
// API key is configured.
func buildComposer(cctx *cli.Context, logger *slog.Logger, allowPassthrough bool) (engine.Composer, error) {
	key := cctx.String("openai-api-key")
	if key == "" {
		if !allowPassthrough {
			return nil, fmt.Errorf("an OpenAI API key is required (OPENAI_API_KEY)")
		}
		logger.Warn("no OpenAI API key configured, posting play descriptions as-is")
		return compose.Passthrough{}, nil
	}
	prompt, err := compose.LoadPrompt(cctx.String("prompt-file"))
	if err != nil {
		return nil, err
	}
	return compose.NewOpenAI(compose.Config{
		APIKey:     key,
		Prompt:     prompt,
		Model:      cctx.String("openai-model"),
		MaxRetries: 2,
		Logger:     logger,
	})
}

func buildBluesky(ctx context.Context, cctx *cli.Context, logger *slog.Logger) (*bsky.Publisher, error) {
	handle := cctx.String("bluesky-handle")
	password := cctx.String("bluesky-password")
	if handle == "" || password == "" {
		return nil, fmt.Errorf("bluesky handle and password are required (BLUESKY_HANDLE, BLUESKY_PASSWORD)")
	}
	pub := bsky.NewPublisher(bsky.Config{
		Host:     cctx.String("bluesky-host"),
		Handle:   handle,
		Password: password,
		Logger:   logger,
	})
	if err := pub.Login(ctx); err != nil {
		return nil, err
	}
	return pub, nil
}

// withPostLog wraps pub so every post it accepts is also appended to the named file. The
// returned func closes the file.
func withPostLog(p string, pub engine.Publisher) (engine.Publisher, func(), error) {
	if p == "" {
		return pub, func() {}, nil
	}
	f, err := os.OpenFile(p, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening post log: %w", err)
	}
	return &bsky.LogPublisher{Out: f, Next: pub}, func() { f.Close() }, nil
}

func driverConfig(cctx *cli.Context, logger *slog.Logger) engine.Config {
	return engine.Config{
		Logger:           logger,
		SubjectName:      cctx.String("subject-name"),
		DroughtThreshold: cctx.Int("drought-threshold"),
		RateLimit:        cctx.Int("rate-limit"),
		RateWindow:       cctx.Duration("rate-window"),
		DailyLimit:       cctx.Int64("daily-limit"),
		Tag:              cctx.String("tag"),
		MaxPostLength:    cctx.Int("max-post-length"),
	}
}

// stopOnSignal stops the driver on SIGINT or SIGTERM.
func stopOnSignal(driver *engine.Driver, logger *slog.Logger) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-signals:
			logger.Info("received OS exit signal", "signal", sig)
			driver.Stop()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(signals)
		close(done)
	}
}

func runLive(cctx *cli.Context) error {
	ctx, cancel := context.WithCancel(cctx.Context)
	defer cancel()
	logger := svcutil.ConfigLogger(cctx, os.Stdout)

	shutdownOTEL, err := configOTEL("wade")
	if err != nil {
		return err
	}
	defer shutdownOTEL()

	loc, err := time.LoadLocation(cctx.String("timezone"))
	if err != nil {
		return fmt.Errorf("bad timezone: %w", err)
	}

	classifier, err := buildClassifier(cctx, logger)
	if err != nil {
		return err
	}
	composer, err := buildComposer(cctx, logger, false)
	if err != nil {
		return err
	}

	var pub engine.Publisher
	if cctx.Bool("dry-run") {
		pub = &bsky.LogPublisher{Out: cctx.App.Writer}
	} else {
		bpub, err := buildBluesky(ctx, cctx, logger)
		if err != nil {
			return err
		}
		go bpub.RefreshLoop(ctx, cctx.Duration("session-refresh"))
		pub = bpub
	}
	pub, closeLog, err := withPostLog(cctx.String("post-log"), pub)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := driverConfig(cctx, logger)
	cfg.Mode = engine.ModeLive
	cfg.Feed = statsapi.NewClient(statsapi.ClientConfig{
		Host:      cctx.String("statsapi-host"),
		TeamID:    cctx.Int64("subject-id"),
		RateLimit: cctx.Float64("statsapi-rate-limit"),
		Location:  loc,
		Logger:    logger,
	})
	if p := cctx.String("schedule-file"); p != "" {
		sched, err := statsapi.LoadScheduleFile(p, loc)
		if err != nil {
			return err
		}
		logger.Info("loaded schedule", "path", p, "game_days", sched.GameDays())
		cfg.Schedule = sched
	}
	cfg.Composer = composer
	cfg.Publisher = pub
	cfg.Classifier = classifier
	cfg.PollInterval = cctx.Duration("poll-interval")
	cfg.IdleBackoff = cctx.Duration("idle-backoff")

	driver, err := engine.NewDriver(cfg)
	if err != nil {
		return err
	}

	srv := NewServer(driver, cctx.String("bind"), logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("status server failed", "err", err)
			driver.Stop()
		}
	}()
	defer srv.Shutdown()

	unhook := stopOnSignal(driver, logger)
	defer unhook()

	logger.Info("wade starting", "version", cctx.App.Version, "subject", cctx.Int64("subject-id"))
	return driver.Run(ctx)
}

func gameFileArg(cctx *cli.Context) (*statsapi.GameFile, error) {
	if cctx.Args().Len() != 1 {
		return nil, fmt.Errorf("expected exactly one game file argument")
	}
	return statsapi.LoadGameFile(cctx.Args().First())
}

func runReplay(cctx *cli.Context) error {
	ctx, cancel := context.WithCancel(cctx.Context)
	defer cancel()
	logger := svcutil.ConfigLogger(cctx, os.Stdout)

	game, err := gameFileArg(cctx)
	if err != nil {
		return err
	}
	logger.Info("loaded game", "event", game.EventID, "plays", len(game.Plays))

	classifier, err := buildClassifier(cctx, logger)
	if err != nil {
		return err
	}
	composer, err := buildComposer(cctx, logger, true)
	if err != nil {
		return err
	}

	var pub engine.Publisher = &bsky.LogPublisher{Out: cctx.App.Writer}
	if cctx.Bool("publish") {
		bpub, err := buildBluesky(ctx, cctx, logger)
		if err != nil {
			return err
		}
		pub = bpub
	}
	pub, closeLog, err := withPostLog(cctx.String("post-log"), pub)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := driverConfig(cctx, logger)
	cfg.Mode = engine.ModeReplay
	cfg.Feed = statsapi.NewReplaySource(game, cctx.Int("step"))
	cfg.Composer = composer
	cfg.Publisher = pub
	cfg.Classifier = classifier
	cfg.PollInterval = cctx.Duration("interval")
	cfg.ReplayPasses = cctx.Int("passes")

	driver, err := engine.NewDriver(cfg)
	if err != nil {
		return err
	}

	if bind := cctx.String("bind"); bind != "" {
		srv := NewServer(driver, bind, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("status server failed", "err", err)
			}
		}()
		defer srv.Shutdown()
	}

	unhook := stopOnSignal(driver, logger)
	defer unhook()

	if err := driver.Run(ctx); err != nil {
		return err
	}
	st := driver.Status()
	fmt.Fprintf(cctx.App.Writer, "replay complete: %d posts (%d escalations, %d rate limited)\n",
		st.PostsMade, st.EscalationsMade, st.RateLimited)
	return nil
}

// runClassify prints the classifier's decision for each play. There is no ledger or drought
// state here; it shows what the rules say about each play on its own.
func runClassify(cctx *cli.Context) error {
	logger := svcutil.ConfigLogger(cctx, os.Stderr)
	game, err := gameFileArg(cctx)
	if err != nil {
		return err
	}
	classifier, err := buildClassifier(cctx, logger)
	if err != nil {
		return err
	}
	return printDecisions(cctx.App.Writer, classifier, game.Plays)
}

func printDecisions(w io.Writer, c *engine.Classifier, plays []play.Record) error {
	posts := 0
	for i := range plays {
		rec := &plays[i]
		d := c.Classify(rec)
		mark := " "
		if d.Post {
			mark = "*"
			posts++
		}
		if _, err := fmt.Fprintf(w, "%s %s - Reason: %s\n", mark, rec.String(), d.Reason); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d of %d plays would post\n", posts, len(plays))
	return err
}
