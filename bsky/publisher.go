// Package bsky publishes posts to a Bluesky account over XRPC.
package bsky

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/wadelive/wade/engine"
	"github.com/wadelive/wade/util"
	"github.com/wadelive/wade/xrpc"
)

const DefaultHost = "https://bsky.social"

var ErrNotLoggedIn = errors.New("bsky: not logged in")

type Config struct {
	// PDS or entryway; defaults to DefaultHost
	Host     string
	Handle   string
	Password string
	// session calls; defaults to util.RobustHTTPClient()
	HTTPClient *http.Client
	// createRecord only. It must not retry: a post may be stored even when the response is
	// lost. Defaults to a retryablehttp client with no retries.
	PostHTTPClient *http.Client
	Logger         *slog.Logger
	Now            func() time.Time
}

// Publisher posts as one account. Publish is safe to call concurrently with RefreshLoop.
type Publisher struct {
	host       string
	handle     string
	password   string
	client     *http.Client
	postClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	lk   sync.Mutex
	auth *xrpc.AuthInfo
}

var _ engine.Publisher = (*Publisher)(nil)

func NewPublisher(cfg Config) *Publisher {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = util.RobustHTTPClient()
	}
	if cfg.PostHTTPClient == nil {
		cfg.PostHTTPClient = util.NewRetryClient(logger.With("system", "http"), 0, 20*time.Second)
	}
	return &Publisher{
		host:       cfg.Host,
		handle:     cfg.Handle,
		password:   cfg.Password,
		client:     cfg.HTTPClient,
		postClient: cfg.PostHTTPClient,
		logger:     logger.With("system", "bsky", "handle", cfg.Handle),
		now:        cfg.Now,
	}
}

// xrpcClient returns a client carrying the current session, if any.
func (p *Publisher) xrpcClient() *xrpc.Client {
	p.lk.Lock()
	defer p.lk.Unlock()
	c := &xrpc.Client{Client: p.client, Host: p.host}
	if p.auth != nil {
		auth := *p.auth
		c.Auth = &auth
	}
	return c
}

func (p *Publisher) setAuth(out *ServerCreateSession_Output) {
	p.lk.Lock()
	defer p.lk.Unlock()
	p.auth = &xrpc.AuthInfo{
		AccessJwt:  out.AccessJwt,
		RefreshJwt: out.RefreshJwt,
		Handle:     out.Handle,
		Did:        out.Did,
	}
}

// Login creates a new session with the account password.
func (p *Publisher) Login(ctx context.Context) error {
	out, err := ServerCreateSession(ctx, p.xrpcClient(), &ServerCreateSession_Input{
		Identifier: p.handle,
		Password:   p.password,
	})
	if err != nil {
		return fmt.Errorf("creating session for %s: %w", p.handle, err)
	}
	p.setAuth(out)
	p.logger.Info("logged in", "did", out.Did)
	return nil
}

// Refresh swaps the refresh token for a new session, falling back to a full login if the
// refresh token has expired too.
func (p *Publisher) Refresh(ctx context.Context) error {
	c := p.xrpcClient()
	if c.Auth == nil {
		return p.Login(ctx)
	}
	out, err := ServerRefreshSession(ctx, c)
	if err != nil {
		var xerr *xrpc.Error
		if errors.As(err, &xerr) && (xerr.ErrorName() == "ExpiredToken" || xerr.ErrorName() == "InvalidToken") {
			p.logger.Warn("refresh token rejected, logging in again", "err", err)
			return p.Login(ctx)
		}
		return fmt.Errorf("refreshing session: %w", err)
	}
	p.setAuth(out)
	p.logger.Debug("refreshed session")
	return nil
}

// RefreshLoop refreshes the session every interval until ctx is done. Access tokens are short
// lived; posts can be hours apart.
func (p *Publisher) RefreshLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := p.Refresh(ctx); err != nil {
				p.logger.Error("failed to refresh session", "err", err)
			}
		}
	}
}

// Publish creates a post. An expired access token is refreshed and the post tried once more.
func (p *Publisher) Publish(ctx context.Context, text string) error {
	c := p.xrpcClient()
	if c.Auth == nil {
		return ErrNotLoggedIn
	}
	out, err := p.createPost(ctx, c, text)
	if err != nil {
		var xerr *xrpc.Error
		if !errors.As(err, &xerr) || xerr.ErrorName() != "ExpiredToken" {
			return err
		}
		if err := p.Refresh(ctx); err != nil {
			return err
		}
		if out, err = p.createPost(ctx, p.xrpcClient(), text); err != nil {
			return err
		}
	}
	p.logger.Info("published post", "uri", out.Uri)
	return nil
}

func (p *Publisher) createPost(ctx context.Context, c *xrpc.Client, text string) (*RepoCreateRecord_Output, error) {
	c.Client = p.postClient
	return RepoCreateRecord(ctx, c, &RepoCreateRecord_Input{
		Repo:       c.Auth.Did,
		Collection: postCollection,
		Record:     NewFeedPost(text, p.now()),
	})
}
