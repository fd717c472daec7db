package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// Bluesky counts post length in grapheme clusters
const DefaultMaxPostLength = 300

var errEmptyComposition = errors.New("composer returned empty text")

type MessageKind string

const (
	MessageReaction   MessageKind = "reaction"
	MessageEscalation MessageKind = "escalation"
)

// finishPost appends tag when the text doesn't already carry it, then truncates to max
// grapheme clusters. The tag may itself get cut off by the truncation.
func finishPost(text, tag string, max int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyComposition
	}
	if tag != "" && !strings.Contains(text, tag) {
		text = text + " " + tag
	}
	return truncateGraphemes(text, max), nil
}

func truncateGraphemes(s string, max int) string {
	if max <= 0 || len(s) <= max {
		// byte length bounds grapheme count
		return s
	}
	var b strings.Builder
	n := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		if n == max {
			break
		}
		b.WriteString(gr.Str())
		n++
	}
	return b.String()
}

func escalationSource(subjectName string, count int) string {
	if subjectName == "" {
		subjectName = "home team"
	}
	return fmt.Sprintf("Nothing has happened for the %s in %d straight plate appearances. No hits, no walks, no runs.", subjectName, count)
}
