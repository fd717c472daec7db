package bsky

import (
	"regexp"
	"time"

	"github.com/wadelive/wade/util"
)

const postCollection = "app.bsky.feed.post"

// a tag runs from '#' up to whitespace or punctuation, and can't be all digits
var tagRegex = regexp.MustCompile(`(?:^|\s)(#[\p{L}\p{N}_]*[\p{L}_][\p{L}\p{N}_]*)`)

// NewFeedPost builds a post record, with tag facets so hashtags are searchable.
func NewFeedPost(text string, now time.Time) *FeedPost {
	return &FeedPost{
		LexiconTypeID: postCollection,
		Text:          text,
		CreatedAt:     util.FormatTimestamp(now),
		Langs:         []string{"en"},
		Facets:        tagFacets(text),
	}
}

// tagFacets finds hashtags in text. Facet offsets are in bytes of the UTF-8 text.
func tagFacets(text string) []*RichtextFacet {
	var facets []*RichtextFacet
	for _, m := range tagRegex.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		facets = append(facets, &RichtextFacet{
			Index: &RichtextFacet_ByteSlice{ByteStart: int64(start), ByteEnd: int64(end)},
			Features: []*RichtextFacet_Tag{{
				LexiconTypeID: "app.bsky.richtext.facet#tag",
				Tag:           text[start+1 : end],
			}},
		})
	}
	return facets
}
