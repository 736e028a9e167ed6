package planner

import (
	"strings"

	"github.com/rishi-ai/orchestrator/internal/story/model"
)

// rule maps a set of trigger emotion tags to a persona and scripture hint.
type rule struct {
	triggers []string
	persona  string
	work     string
}

// rules is evaluated first-match-wins, so ordering matters: the anxiety
// cluster dominates when tags overlap across rules.
var rules = []rule{
	{triggers: []string{"anxiety", "overthinking", "fear", "stress"}, persona: model.PersonaKrishna, work: "Bhagavad Gita"},
	{triggers: []string{"rational", "logic", "analysis", "question"}, persona: model.PersonaJiddu},
	{triggers: []string{"breath", "meditation", "still", "yoga"}, persona: model.PersonaPatanjali, work: "Yoga Sutra"},
}

// PlanSources decides which evidence sources a request should use and which
// persona narrates. Pure and deterministic: retrieval and generation are
// always enabled; web search is reserved for a later plan revision.
func PlanSources(problemText string, emotionTags []string) model.Plan {
	tags := make(map[string]bool, len(emotionTags))
	for _, t := range emotionTags {
		tags[strings.ToLower(strings.TrimSpace(t))] = true
	}

	plan := model.Plan{
		Sources: []model.Source{model.SourceRetrieval, model.SourceGeneration},
		Persona: model.PersonaDefault,
	}
	for _, r := range rules {
		if intersects(tags, r.triggers) {
			plan.Persona = r.persona
			plan.WorkHint = r.work
			break
		}
	}
	return plan
}

func intersects(tags map[string]bool, triggers []string) bool {
	for _, t := range triggers {
		if tags[t] {
			return true
		}
	}
	return false
}

// Adequacy is the result of the evidence-sufficiency gate.
type Adequacy struct {
	Sufficient bool   `json:"sufficient"`
	Reason     string `json:"reason"`
}

// AdequacyGate rates whether gathered evidence is enough to skip further
// enrichment. Sufficiency is binary: at least one grounded citation exists.
func AdequacyGate(problemText string, citations []model.Citation, snippets int) Adequacy {
	if len(citations) > 0 {
		return Adequacy{Sufficient: true, Reason: "retrieval produced at least one grounded citation"}
	}
	return Adequacy{Sufficient: false, Reason: "no grounded citations; consider web search"}
}
