package bsky

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadelive/wade/util"
)

var postTime = time.Date(2025, 4, 1, 20, 31, 7, 0, time.UTC)

// fakePDS accepts one account and hands out numbered tokens
type fakePDS struct {
	t *testing.T

	mu        sync.Mutex
	sessions  int
	refreshes int
	access    string
	refresh   string
	expireNow bool
	failPosts int
	posts     int
	records   []map[string]any
}

func (f *fakePDS) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (f *fakePDS) newTokens() map[string]string {
	f.sessions++
	f.access = "access-" + string(rune('0'+f.sessions))
	f.refresh = "refresh-" + string(rune('0'+f.sessions))
	return map[string]string{
		"accessJwt":  f.access,
		"refreshJwt": f.refresh,
		"handle":     "wade.bsky.social",
		"did":        "did:plc:wade",
	}
}

func (f *fakePDS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch r.URL.Path {
	case "/xrpc/com.atproto.server.createSession":
		var in ServerCreateSession_Input
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		if in.Identifier != "wade.bsky.social" || in.Password != "hunter2" {
			f.writeJSON(w, 401, map[string]string{"error": "AuthenticationRequired", "message": "Invalid identifier or password"})
			return
		}
		f.writeJSON(w, 200, f.newTokens())
	case "/xrpc/com.atproto.server.refreshSession":
		if r.Header.Get("Authorization") != "Bearer "+f.refresh {
			f.writeJSON(w, 400, map[string]string{"error": "ExpiredToken", "message": "Token has expired"})
			return
		}
		f.refreshes++
		f.writeJSON(w, 200, f.newTokens())
	case "/xrpc/com.atproto.repo.createRecord":
		f.posts++
		if f.failPosts > 0 {
			f.failPosts--
			f.writeJSON(w, 502, map[string]string{"error": "UpstreamFailure", "message": "bad gateway"})
			return
		}
		if f.expireNow || r.Header.Get("Authorization") != "Bearer "+f.access {
			f.expireNow = false
			f.writeJSON(w, 400, map[string]string{"error": "ExpiredToken", "message": "Token has expired"})
			return
		}
		var in map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&in))
		f.records = append(f.records, in)
		f.writeJSON(w, 200, map[string]string{"uri": "at://did:plc:wade/app.bsky.feed.post/3lmxyz", "cid": "bafyrei"})
	default:
		http.NotFound(w, r)
	}
}

func testPublisher(t *testing.T) (*Publisher, *fakePDS, func()) {
	pds := &fakePDS{t: t}
	srv := httptest.NewServer(pds)
	p := NewPublisher(Config{
		Host:       srv.URL,
		Handle:     "wade.bsky.social",
		Password:   "hunter2",
		HTTPClient: srv.Client(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return postTime },
	})
	return p, pds, srv.Close
}

func TestPublish(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	p, pds, done := testPublisher(t)
	defer done()

	assert.ErrorIs(p.Publish(ctx, "too early"), ErrNotLoggedIn)

	require.NoError(p.Login(ctx))
	require.NoError(p.Publish(ctx, "LEE SINGLES! #SFGiants"))

	require.Len(pds.records, 1)
	in := pds.records[0]
	assert.Equal("did:plc:wade", in["repo"])
	assert.Equal("app.bsky.feed.post", in["collection"])
	rec := in["record"].(map[string]any)
	assert.Equal("app.bsky.feed.post", rec["$type"])
	assert.Equal("LEE SINGLES! #SFGiants", rec["text"])
	assert.Equal("2025-04-01T20:31:07.000Z", rec["createdAt"])
	facets := rec["facets"].([]any)
	assert.Len(facets, 1)
}

func TestPublishExpiredToken(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	p, pds, done := testPublisher(t)
	defer done()
	require.NoError(p.Login(ctx))

	pds.mu.Lock()
	pds.expireNow = true
	pds.mu.Unlock()

	require.NoError(p.Publish(ctx, "Chapman doubles"))
	assert.Equal(1, pds.refreshes)
	assert.Len(pds.records, 1)
}

func TestPublishDoesNotRetryCreateRecord(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	pds := &fakePDS{t: t, failPosts: 1}
	srv := httptest.NewServer(pds)
	defer srv.Close()
	p := NewPublisher(Config{
		Host:       srv.URL,
		Handle:     "wade.bsky.social",
		Password:   "hunter2",
		HTTPClient: util.RobustHTTPClient(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:        func() time.Time { return postTime },
	})
	require.NoError(p.Login(ctx))

	// the PDS may have stored the post before the 502, so it is not sent again
	assert.Error(p.Publish(ctx, "Ramos homers"))
	assert.Equal(1, pds.posts)
	assert.Empty(pds.records)

	require.NoError(p.Publish(ctx, "Yastrzemski triples"))
	assert.Equal(2, pds.posts)
	assert.Len(pds.records, 1)
}

func TestRefreshFallsBackToLogin(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	p, pds, done := testPublisher(t)
	defer done()

	// no session yet
	require.NoError(p.Refresh(ctx))
	assert.Equal(1, pds.sessions)

	require.NoError(p.Refresh(ctx))
	assert.Equal(1, pds.refreshes)

	pds.mu.Lock()
	pds.refresh = "rotated-elsewhere"
	pds.mu.Unlock()
	require.NoError(p.Refresh(ctx))
	assert.Equal(3, pds.sessions)
}

func TestLoginBadPassword(t *testing.T) {
	p, _, done := testPublisher(t)
	defer done()
	p.password = "wrong"

	err := p.Login(context.Background())
	assert.ErrorContains(t, err, "AuthenticationRequired")
}

func TestLogPublisher(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	var buf bytes.Buffer
	dry := &LogPublisher{Out: &buf, Now: func() time.Time { return postTime }}
	assert.NoError(dry.Publish(ctx, "Bailey walks"))
	assert.Equal("[2025-04-01 20:31:07] Bailey walks\n", buf.String())

	buf.Reset()
	failing := &LogPublisher{Out: &buf, Next: failPublisher{}}
	assert.Error(failing.Publish(ctx, "never logged"))
	assert.Empty(buf.String())
}

type failPublisher struct{}

func (failPublisher) Publish(ctx context.Context, text string) error {
	return errors.New("XRPC ERROR 500")
}
