package guide

import (
	"strings"

	"github.com/rishi-ai/orchestrator/internal/story/model"
)

// PersonaAuto asks the router to pick a companion from context.
const PersonaAuto = "auto"

// ChoosePersona routes a chat turn to a companion persona. Priority:
// an explicit rational guidance style, then the last cited work, then
// emotion tags. The default companion takes everything else.
func ChoosePersona(emotionTags []string, lastWork, guidanceStyle string) string {
	style := strings.ToLower(strings.TrimSpace(guidanceStyle))
	work := strings.ToLower(lastWork)

	if style == "rational" {
		return model.PersonaJiddu
	}
	if strings.Contains(work, "gita") || strings.Contains(work, "bhagavad") {
		return model.PersonaKrishna
	}
	if strings.Contains(style, "breath") || hasTag(emotionTags, "anxiety") || hasTag(emotionTags, "overthinking") {
		return model.PersonaPatanjali
	}
	return model.PersonaDefault
}

// ResolvePersona honors an explicit persona choice and routes otherwise.
func ResolvePersona(requested string, emotionTags []string, lastWork string) string {
	p := strings.ToLower(strings.TrimSpace(requested))
	switch p {
	case model.PersonaKrishna, model.PersonaJiddu, model.PersonaPatanjali, model.PersonaDefault:
		return p
	case "", PersonaAuto:
		return ChoosePersona(emotionTags, lastWork, "")
	default:
		return ChoosePersona(emotionTags, lastWork, "")
	}
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if strings.ToLower(strings.TrimSpace(t)) == want {
			return true
		}
	}
	return false
}
