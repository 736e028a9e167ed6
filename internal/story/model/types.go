package model

import (
	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/search"
)

// Source identifies one evidence source the plan may enable.
type Source string

const (
	SourceRetrieval  Source = "retrieval"
	SourceGeneration Source = "generation"
	SourceWebSearch  Source = "web_search"
)

// Persona names for guide replies and story voice. The planner always
// resolves to one of these; PersonaDefault is the fallback.
const (
	PersonaKrishna   = "krishna"
	PersonaJiddu     = "jiddu"
	PersonaPatanjali = "patanjali"
	PersonaDefault   = "omniphilosopher"
)

// Plan is the evidence-planning decision for one pipeline run.
// Invariant: Sources is non-empty and Persona is always resolved.
type Plan struct {
	Sources  []Source `json:"sources"`
	Persona  string   `json:"persona"`
	WorkHint string   `json:"work,omitempty"`
}

// Has reports whether the plan enables the given source.
func (p Plan) Has(s Source) bool {
	for _, v := range p.Sources {
		if v == s {
			return true
		}
	}
	return false
}

// StoryInput is the public input for one story pipeline run.
type StoryInput struct {
	ProblemText string   `json:"problem_text"`
	EmotionTags []string `json:"emotion_tags"`
}

// Citation is a source reference in the final payload.
type Citation struct {
	Work string `json:"work"`
	Ref  string `json:"ref,omitempty"`
}

// Slide is one illustrated beat of the story.
type Slide struct {
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
}

// StoryPayload is the composed result handed to the HTTP boundary.
// Invariants: NarrationText is non-empty, Takeaways has at most three items,
// and Citations always contains at least one entry.
type StoryPayload struct {
	Title         string     `json:"title"`
	Slides        []Slide    `json:"slides"`
	NarrationText string     `json:"narration_text"`
	Takeaways     []string   `json:"takeaways"`
	Citations     []Citation `json:"citations"`
	AudioURL      string     `json:"audio_url,omitempty"`
	BgMusicURL    string     `json:"bg_music_url,omitempty"`
}

// PipelineState is the graph-local state for a single pipeline run.
// Concurrency model:
//   - Registered via compose.WithGenLocalState; reads and writes happen only
//     inside Eino state handlers or compose.ProcessState, which serialize
//     access, so no mutex is needed.
//   - Each stage node consumes its typed input and produces a typed output;
//     the state only accumulates stage results for downstream stages.
type PipelineState struct {
	ProblemText string
	EmotionTags []string
	Plan        Plan
	Hits        []retrieval.Hit
	Snippets    []search.Snippet
	Narration   string
}
