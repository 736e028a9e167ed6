package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/search"
	"github.com/rishi-ai/orchestrator/internal/story/model"
)

//go:embed template/story_system.txt
var storySystemPrompt string

//go:embed template/story_user.txt
var storyUserPrompt string

// Evidence bounds rendered into the user prompt. Retrieval hits beyond three
// and snippets beyond two add token cost without adding grounding.
const (
	maxContextHits     = 3
	maxContextSnippets = 2
)

// RenderStorySystem renders the narration system prompt via the Eino prompt
// component so prompt callbacks fire.
func RenderStorySystem(ctx context.Context, cfg model.StoryPromptConfig, persona string) (string, error) {
	if persona == "" {
		persona = model.PersonaDefault
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(storySystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Persona":   persona,
		"StyleNote": cfg.StyleNote,
	})
	if err != nil {
		return "", fmt.Errorf("story system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("story system prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderStoryUser renders the user prompt with the evidence context block.
func RenderStoryUser(ctx context.Context, in model.StoryInput, hits []retrieval.Hit, snippets []search.Snippet) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(storyUserPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"EmotionTags": strings.Join(in.EmotionTags, ", "),
		"Problem":     in.ProblemText,
		"Context":     FormatContext(hits, snippets),
	})
	if err != nil {
		return "", fmt.Errorf("story user prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("story user prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// FormatContext builds the evidence block: up to three retrieval hits with
// their citations, then up to two web snippets.
func FormatContext(hits []retrieval.Hit, snippets []search.Snippet) string {
	var parts []string
	for i, h := range hits {
		if i == maxContextHits {
			break
		}
		line := strings.TrimSpace(h.Document)
		if cite := strings.TrimSpace(h.Meta.Work + " " + joinRef(h.Meta.Chapter, h.Meta.Verse)); cite != "" {
			line = cite + ": " + line
		}
		parts = append(parts, "[RAG] "+line)
	}
	for i, s := range snippets {
		if i == maxContextSnippets {
			break
		}
		parts = append(parts, "[WEB] "+strings.TrimSpace(s.Title+": "+s.Snippet))
	}
	if len(parts) == 0 {
		return "(no context)"
	}
	return strings.Join(parts, "\n")
}

func joinRef(chapter, verse string) string {
	if chapter == "" || verse == "" {
		return ""
	}
	return chapter + "." + verse
}
