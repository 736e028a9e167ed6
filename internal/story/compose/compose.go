// Package compose deterministically merges pipeline evidence into the final
// story payload. Everything here is pure: no I/O, identical inputs produce
// identical payloads.
package compose

import (
	"strings"

	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/story/model"
)

const (
	defaultTitle = "Do Your Part. Let Worry Be Light."

	// takeawayMarker splits narration body from the takeaway block the
	// generator is prompted to emit.
	takeawayMarker = "Takeaways:"

	maxTakeaways = 3
)

// DefaultCitation grounds the payload when retrieval produced nothing, so
// the output never looks unsourced.
var DefaultCitation = model.Citation{Work: "Bhagavad Gita", Ref: "2.47"}

var defaultSlides = []model.Slide{
	{ImageURL: "/assets/kurukshetra_1.jpg", Caption: "Arjuna feels fear on the field."},
	{ImageURL: "/assets/krishna_guides.jpg", Caption: "Krishna speaks with care."},
}

var defaultTakeaways = []string{
	"Do one tiny step today. 🌱",
	"Breathe slow before you act.",
	"Let results be light.",
}

const defaultNarration = "You feel heavy because you hold the results too tight. " +
	"Take one kind step. Let the rest be light. 💙"

// Citations derives the payload citations: the first retrieval hit's
// metadata wins when it names a work, otherwise the hardcoded default.
func Citations(hits []retrieval.Hit) []model.Citation {
	if len(hits) > 0 {
		meta := hits[0].Meta
		work := meta.Work
		if work == "" {
			work = DefaultCitation.Work
		}
		c := model.Citation{Work: work}
		if meta.Chapter != "" && meta.Verse != "" {
			c.Ref = meta.Chapter + "." + meta.Verse
		}
		return []model.Citation{c}
	}
	return []model.Citation{DefaultCitation}
}

// SplitTakeaways separates narration body from takeaways. Without a marker
// the full text is the body and the fixed default list is substituted; with
// a marker, up to three non-empty lines after it become takeaways with
// bullet and number prefixes stripped.
func SplitTakeaways(text string) (body string, takeaways []string) {
	idx := strings.Index(text, takeawayMarker)
	if idx < 0 {
		return strings.TrimSpace(text), append([]string(nil), defaultTakeaways...)
	}

	body = strings.TrimSpace(text[:idx])
	for _, line := range strings.Split(text[idx+len(takeawayMarker):], "\n") {
		line = strings.Trim(line, " -•*\t\r")
		line = stripNumberPrefix(line)
		if line == "" {
			continue
		}
		takeaways = append(takeaways, line)
		if len(takeaways) == maxTakeaways {
			break
		}
	}
	if len(takeaways) == 0 {
		takeaways = append([]string(nil), defaultTakeaways...)
	}
	return body, takeaways
}

func stripNumberPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 && i < len(s) && (s[i] == '.' || s[i] == ')') {
		return strings.TrimSpace(s[i+1:])
	}
	return strings.TrimSpace(s)
}

// Story merges retrieval hits and generated narration into the final
// payload. Narration precedence: generated text when non-empty, else the
// fixed template (which carries the default takeaways).
func Story(hits []retrieval.Hit, narration string) *model.StoryPayload {
	citations := Citations(hits)

	text := strings.TrimSpace(narration)
	if text == "" {
		text = defaultNarration
	}
	body, takeaways := SplitTakeaways(text)
	if body == "" {
		// Generator emitted only a takeaway block; keep the payload readable.
		body = defaultNarration
	}

	return &model.StoryPayload{
		Title:         defaultTitle,
		Slides:        append([]model.Slide(nil), defaultSlides...),
		NarrationText: body,
		Takeaways:     takeaways,
		Citations:     citations,
	}
}
