package xrpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMakeParams tests the makeParams function.
func TestMakeParams(t *testing.T) {
	testCases := []struct {
		name     string
		input    map[string]any
		expected string
	}{
		{
			name:     "Empty input",
			input:    map[string]any{},
			expected: "",
		},
		{
			name: "Single value",
			input: map[string]any{
				"repo": "wade.bsky.social",
			},
			expected: "repo=wade.bsky.social",
		},
		{
			name: "Number",
			input: map[string]any{
				"limit": 50,
			},
			expected: "limit=50",
		},
		{
			name: "Slice of strings",
			input: map[string]any{
				"key": []string{"value1", "value2", "value3"},
			},
			expected: "key=value1&key=value2&key=value3",
		},
		{
			name: "Mixed values",
			input: map[string]any{
				"key1": "value1",
				"key2": []string{"value2", "value3"},
			},
			expected: "key1=value1&key2=value2&key2=value3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, makeParams(tc.input))
		})
	}
}

func TestDoProcedure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal("POST", r.Method)
		assert.Equal("/xrpc/com.atproto.repo.createRecord", r.URL.Path)
		assert.Equal("Bearer access", r.Header.Get("Authorization"))
		assert.Equal("application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"uri":"at://did:plc:abc/app.bsky.feed.post/3k","cid":"bafy"}`))
	}))
	defer srv.Close()

	c := &Client{Client: srv.Client(), Host: srv.URL, Auth: &AuthInfo{AccessJwt: "access", RefreshJwt: "refresh"}}
	var out struct {
		Uri string `json:"uri"`
		Cid string `json:"cid"`
	}
	err := c.Do(context.Background(), Procedure, "application/json", "com.atproto.repo.createRecord", nil, map[string]string{"repo": "x"}, &out)
	require.NoError(err)
	assert.Equal("bafy", out.Cid)
}

func TestDoRefreshUsesRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer refresh", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := &Client{Client: srv.Client(), Host: srv.URL, Auth: &AuthInfo{AccessJwt: "access", RefreshJwt: "refresh"}}
	require.NoError(t, c.Do(context.Background(), Procedure, "", "com.atproto.server.refreshSession", nil, nil, nil))
}

func TestDoError(t *testing.T) {
	assert := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ratelimit-limit", "5000")
		w.Header().Set("ratelimit-remaining", "0")
		w.Header().Set("ratelimit-reset", "1743534000")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"RateLimitExceeded","message":"Rate Limit Exceeded"}`))
	}))
	defer srv.Close()

	c := &Client{Client: srv.Client(), Host: srv.URL}
	err := c.Do(context.Background(), Query, "", "app.bsky.actor.getProfile", map[string]any{"actor": "wade"}, nil, nil)

	var xerr *Error
	assert.True(errors.As(err, &xerr))
	assert.True(xerr.IsThrottled())
	assert.Equal("RateLimitExceeded", xerr.ErrorName())
	assert.Equal(5000, xerr.Ratelimit.Limit)
	assert.Equal(0, xerr.Ratelimit.Remaining)

	var inner *XRPCError
	assert.True(errors.As(err, &inner))
	assert.Equal("Rate Limit Exceeded", inner.Message)
}
