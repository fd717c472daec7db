package statsapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/wadelive/wade/engine"
	"github.com/wadelive/wade/util"
)

const DefaultHost = "https://statsapi.mlb.com"

var ErrNotFound = errors.New("not found")

type ClientConfig struct {
	// defaults to DefaultHost
	Host   string
	TeamID int64
	// defaults to util.RobustHTTPClient()
	HTTPClient *http.Client
	// requests per second; zero or less is unlimited
	RateLimit float64
	// how long a day's schedule is reused before asking again
	ScheduleTTL time.Duration
	// consecutive failed requests before the breaker opens; defaults to 5
	BreakerFailures uint32
	// how long the breaker stays open; defaults to 30s
	BreakerTimeout time.Duration
	// calendar dates are taken in this location; defaults to UTC
	Location *time.Location
	Logger   *slog.Logger
	Now      func() time.Time
}

// Client is the live play-by-play source. It implements engine.Feed.
type Client struct {
	host      string
	teamID    int64
	client    *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	schedules *expirable.LRU[string, []ScheduleGame]
	loc       *time.Location
	logger    *slog.Logger
	now       func() time.Time
}

var _ engine.Feed = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = util.RobustHTTPClient()
	}
	if cfg.ScheduleTTL <= 0 {
		cfg.ScheduleTTL = 2 * time.Minute
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("system", "statsapi")

	// traced copy; the caller's client is left alone
	hc := *cfg.HTTPClient
	hc.Transport = otelhttp.NewTransport(hc.Transport)

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		host:      cfg.Host,
		teamID:    cfg.TeamID,
		client:    &hc,
		limiter:   rate.NewLimiter(limit, 1),
		schedules: expirable.NewLRU[string, []ScheduleGame](16, nil, cfg.ScheduleTTL),
		loc:       cfg.Location,
		logger:    logger,
		now:       cfg.Now,
	}
	failures := cfg.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "statsapi",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if to == gobreaker.StateOpen {
				breakerOpen.Set(1)
			} else {
				breakerOpen.Set(0)
			}
		},
	})
	return c
}

// get fetches one API document. Requests are paced by the rate limiter, and fail fast while the
// circuit breaker is open.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	u := c.host + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "wade/"+versioninfo.Short())
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status from %s: %d", path, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		feedRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, err
	}
	feedRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, nil
}

// ScheduleGames returns the games on the given date (YYYY-MM-DD) involving the configured
// team. Results are cached briefly, so game status can lag by up to the schedule TTL.
func (c *Client) ScheduleGames(ctx context.Context, date string) ([]ScheduleGame, error) {
	if games, ok := c.schedules.Get(date); ok {
		scheduleCacheHits.Inc()
		return games, nil
	}
	scheduleCacheMisses.Inc()

	params := url.Values{}
	params.Set("sportId", "1")
	params.Set("date", date)
	if c.teamID != 0 {
		params.Set("teamId", strconv.FormatInt(c.teamID, 10))
	}
	body, err := c.get(ctx, "schedule", "/api/v1/schedule", params)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule for %s: %w", date, err)
	}

	var sched ScheduleResponse
	if err := json.Unmarshal(body, &sched); err != nil {
		return nil, fmt.Errorf("decoding schedule: %w", err)
	}
	var games []ScheduleGame
	for _, d := range sched.Dates {
		for _, g := range d.Games {
			if c.teamID == 0 || g.Involves(c.teamID) {
				games = append(games, g)
			}
		}
	}
	c.schedules.Add(date, games)
	return games, nil
}

// LocateEvent finds today's game for the team, preferring one which isn't final yet (the
// second game of a doubleheader, say).
func (c *Client) LocateEvent(ctx context.Context) (string, bool, error) {
	date := c.now().In(c.loc).Format(time.DateOnly)
	games, err := c.ScheduleGames(ctx, date)
	if err != nil {
		return "", false, err
	}
	if len(games) == 0 {
		return "", false, nil
	}
	pick := pickGame(games)
	c.logger.Debug("located game", "date", date, "game", pick.GamePk, "state", pick.Status.AbstractGameState)
	return strconv.FormatInt(pick.GamePk, 10), true, nil
}

// pickGame returns the earliest game that isn't final yet. Once every game of the day is final
// it returns the latest one, so a finished doubleheader doesn't send the driver back to game 1.
func pickGame(games []ScheduleGame) ScheduleGame {
	ordered := slices.Clone(games)
	slices.SortStableFunc(ordered, func(a, b ScheduleGame) int {
		at, aok := a.StartTime()
		bt, bok := b.StartTime()
		switch {
		case aok && bok:
			return at.Compare(bt)
		case aok:
			return -1
		case bok:
			return 1
		}
		return 0
	})
	for _, g := range ordered {
		if !g.Status.IsFinal() {
			return g
		}
	}
	return ordered[len(ordered)-1]
}

// FetchPlays returns every play in the game so far.
func (c *Client) FetchPlays(ctx context.Context, eventID string) (*engine.Batch, error) {
	if _, err := strconv.ParseInt(eventID, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid game id %q", eventID)
	}
	body, err := c.get(ctx, "feed", "/api/v1.1/game/"+eventID+"/feed/live", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching game feed: %w", err)
	}

	var feed LiveFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decoding game feed: %w", err)
	}
	return &engine.Batch{
		EventID: eventID,
		Plays:   toRecords(feed.plays(), feed.GameData.Teams.Home.ID, feed.GameData.Teams.Away.ID),
		Final:   feed.GameData.Status.IsFinal(),
	}, nil
}
