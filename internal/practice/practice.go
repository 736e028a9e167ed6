// Package practice suggests short contemplative exercises matched to the
// user's emotional state.
package practice

import "strings"

// Item is one suggested exercise.
type Item struct {
	Title string   `json:"title"`
	Why   string   `json:"why"`
	Roots string   `json:"roots"`
	Steps []string `json:"steps"`
}

var baseItems = []Item{
	{
		Title: "Box Breathing 4-4-4-4",
		Why:   "It calms the body and slows racing thoughts.",
		Roots: "Patanjali / Hatha Yoga (pranayama)",
		Steps: []string{"Inhale 4", "Hold 4", "Exhale 4", "Hold 4 (repeat 5 times)"},
	},
	{
		Title: "Heart Focus (Dharana)",
		Why:   "It anchors your attention. Worry feels smaller.",
		Roots: "Vigyana Bhairava Tantra",
		Steps: []string{"Sit easy", "Place attention at heart", "Breathe soft for 1 minute"},
	},
}

var karmaStep = Item{
	Title: "One Tiny Karma Step",
	Why:   "Action breaks loops. Small steps build trust in yourself.",
	Roots: "Bhagavad Gita 2.47 (act, release the fruit)",
	Steps: []string{"Pick one 5-minute task", "Do it gently", "Let results be light"},
}

// anxious reports whether any tag signals an agitated state.
func anxious(emotionTags []string) bool {
	for _, t := range emotionTags {
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "anxiety", "overthinking", "stress":
			return true
		}
	}
	return false
}

// Suggest returns the base practices, plus the karma step when the tags
// signal agitation. The result is a fresh slice each call.
func Suggest(emotionTags []string) []Item {
	items := make([]Item, len(baseItems))
	copy(items, baseItems)
	if anxious(emotionTags) {
		items = append(items, karmaStep)
	}
	return items
}
