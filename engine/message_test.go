package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFinishPost(t *testing.T) {
	assert := assert.New(t)

	out, err := finishPost("  What a swing!  ", "#SFGiants", 300)
	assert.NoError(err)
	assert.Equal("What a swing! #SFGiants", out)

	// tag already present
	out, err = finishPost("#SFGiants win it in the ninth", "#SFGiants", 300)
	assert.NoError(err)
	assert.Equal("#SFGiants win it in the ninth", out)

	_, err = finishPost("   ", "#SFGiants", 300)
	assert.Error(err)

	// truncation happens after the tag is appended
	long := strings.Repeat("a", 295)
	out, err = finishPost(long, "#SFGiants", 300)
	assert.NoError(err)
	assert.Equal(long+" #SFG", out)
}

func TestTruncateGraphemes(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("short", truncateGraphemes("short", 300))
	assert.Equal("abc", truncateGraphemes("abcdef", 3))
	assert.Equal("anything", truncateGraphemes("anything", 0))

	// flag emoji are two runes, one grapheme cluster
	flags := strings.Repeat("🇺🇸", 5)
	out := truncateGraphemes(flags, 3)
	assert.Equal(strings.Repeat("🇺🇸", 3), out)

	accented := "éééé"
	assert.Equal("éé", truncateGraphemes(accented, 2))
}

func TestEscalationSource(t *testing.T) {
	assert := assert.New(t)

	assert.Contains(escalationSource("Giants", 8), "Giants in 8 straight plate appearances")
	assert.Contains(escalationSource("", 3), "home team")
}
