package statsapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadelive/wade/play"
)

func TestLoadGameFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	game, err := LoadGameFile("testdata/sample_game.json")
	require.NoError(err)
	assert.Equal("sample_game", game.EventID)
	require.Len(game.Plays, 8)

	lee := game.Plays[2]
	assert.Equal("Jung Hoo Lee", lee.ActorName)
	assert.Equal(play.Single, lee.OutcomeKind)
	// bare play lists carry no team information
	assert.Nil(lee.ActingEntityID)

	hr := game.Plays[4]
	assert.Equal(2, hr.ScoreDelta)
	assert.Equal(play.HomeRun, hr.OutcomeKind)

	full, err := LoadGameFile("testdata/feed_live.json")
	require.NoError(err)
	assert.Equal("745001", full.EventID)
	assert.Len(full.Plays, 3)

	_, err = LoadGameFile("testdata/schedule.json")
	assert.Error(err)
	_, err = LoadGameFile("testdata/missing.json")
	assert.Error(err)
}

func TestReplaySource(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	game, err := LoadGameFile("testdata/sample_game.json")
	require.NoError(err)
	src := NewReplaySource(game, 3)

	id, found, err := src.LocateEvent(ctx)
	require.NoError(err)
	assert.True(found)

	var sizes []int
	for {
		batch, err := src.FetchPlays(ctx, id)
		require.NoError(err)
		sizes = append(sizes, len(batch.Plays))
		if batch.Final {
			break
		}
	}
	assert.Equal([]int{3, 6, 8}, sizes)

	// modifying a batch leaves the saved game alone
	batch, err := src.FetchPlays(ctx, id)
	require.NoError(err)
	batch.Plays[0].ActorName = "nobody"
	assert.Equal("Mookie Betts", game.Plays[0].ActorName)

	src.Rewind()
	batch, err = src.FetchPlays(ctx, id)
	require.NoError(err)
	assert.Len(batch.Plays, 3)
	assert.False(batch.Final)

	_, err = src.FetchPlays(ctx, "other")
	assert.Error(err)
}
