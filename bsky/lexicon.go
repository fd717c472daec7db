package bsky

import (
	"context"

	"github.com/wadelive/wade/xrpc"
)

// Request and record types for the handful of lexicon methods the publisher calls.

type ServerCreateSession_Input struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ServerCreateSession_Output struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	Did        string `json:"did"`
}

// refreshSession returns the same shape as createSession
type ServerRefreshSession_Output = ServerCreateSession_Output

func ServerCreateSession(ctx context.Context, c *xrpc.Client, input *ServerCreateSession_Input) (*ServerCreateSession_Output, error) {
	var out ServerCreateSession_Output
	if err := c.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.server.createSession", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func ServerRefreshSession(ctx context.Context, c *xrpc.Client) (*ServerRefreshSession_Output, error) {
	var out ServerRefreshSession_Output
	if err := c.Do(ctx, xrpc.Procedure, "", "com.atproto.server.refreshSession", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type RepoCreateRecord_Input struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type RepoCreateRecord_Output struct {
	Uri string `json:"uri"`
	Cid string `json:"cid"`
}

func RepoCreateRecord(ctx context.Context, c *xrpc.Client, input *RepoCreateRecord_Input) (*RepoCreateRecord_Output, error) {
	var out RepoCreateRecord_Output
	if err := c.Do(ctx, xrpc.Procedure, "application/json", "com.atproto.repo.createRecord", nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FeedPost is an app.bsky.feed.post record.
type FeedPost struct {
	LexiconTypeID string           `json:"$type"`
	Text          string           `json:"text"`
	CreatedAt     string           `json:"createdAt"`
	Langs         []string         `json:"langs,omitempty"`
	Facets        []*RichtextFacet `json:"facets,omitempty"`
}

type RichtextFacet struct {
	Index    *RichtextFacet_ByteSlice `json:"index"`
	Features []*RichtextFacet_Tag     `json:"features"`
}

type RichtextFacet_ByteSlice struct {
	ByteStart int64 `json:"byteStart"`
	ByteEnd   int64 `json:"byteEnd"`
}

type RichtextFacet_Tag struct {
	LexiconTypeID string `json:"$type"`
	Tag           string `json:"tag"`
}
