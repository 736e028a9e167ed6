package prompts

import (
	"context"
	"strings"
	"testing"

	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/search"
	"github.com/rishi-ai/orchestrator/internal/story/model"
)

func TestRenderStorySystem(t *testing.T) {
	cfg := model.StoryPromptConfig{StyleNote: "Simple English. Kind and calm."}

	out, err := RenderStorySystem(context.Background(), cfg, "krishna")
	if err != nil {
		t.Fatalf("RenderStorySystem: %v", err)
	}
	if !strings.Contains(out, "krishna") {
		t.Error("persona not rendered into system prompt")
	}
	if !strings.Contains(out, cfg.StyleNote) {
		t.Error("style note not rendered into system prompt")
	}
}

func TestRenderStorySystemDefaultsPersona(t *testing.T) {
	out, err := RenderStorySystem(context.Background(), model.StoryPromptConfig{}, "")
	if err != nil {
		t.Fatalf("RenderStorySystem: %v", err)
	}
	if !strings.Contains(out, model.PersonaDefault) {
		t.Error("empty persona should fall back to the default companion")
	}
}

func TestRenderStoryUser(t *testing.T) {
	in := model.StoryInput{
		ProblemText: "I fear the exam result",
		EmotionTags: []string{"anxiety", "fear"},
	}
	hits := []retrieval.Hit{
		{Document: "Do your duty.", Meta: retrieval.Metadata{Work: "Bhagavad Gita", Chapter: "2", Verse: "47"}},
	}

	out, err := RenderStoryUser(context.Background(), in, hits, nil)
	if err != nil {
		t.Fatalf("RenderStoryUser: %v", err)
	}
	if !strings.Contains(out, "I fear the exam result") {
		t.Error("problem text missing from user prompt")
	}
	if !strings.Contains(out, "anxiety, fear") {
		t.Error("emotion tags missing from user prompt")
	}
	if !strings.Contains(out, "[RAG] Bhagavad Gita 2.47: Do your duty.") {
		t.Errorf("context block malformed:\n%s", out)
	}
}

func TestFormatContext(t *testing.T) {
	hits := []retrieval.Hit{
		{Document: "a", Meta: retrieval.Metadata{Work: "Gita", Chapter: "2", Verse: "47"}},
		{Document: "b", Meta: retrieval.Metadata{Work: "Gita"}},
		{Document: "c"},
		{Document: "d"}, // beyond the cap
	}
	snippets := []search.Snippet{
		{Title: "web insight", Snippet: "s1"},
		{Title: "web insight", Snippet: "s2"},
		{Title: "web insight", Snippet: "s3"}, // beyond the cap
	}

	out := FormatContext(hits, snippets)
	lines := strings.Split(out, "\n")
	if len(lines) != maxContextHits+maxContextSnippets {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), maxContextHits+maxContextSnippets, out)
	}
	if lines[0] != "[RAG] Gita 2.47: a" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "[RAG] Gita: b" {
		t.Errorf("partial metadata should omit the ref: %q", lines[1])
	}
	if lines[2] != "[RAG] c" {
		t.Errorf("missing metadata should leave the bare document: %q", lines[2])
	}
	if lines[3] != "[WEB] web insight: s1" {
		t.Errorf("line 3 = %q", lines[3])
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := FormatContext(nil, nil); got != "(no context)" {
		t.Errorf("empty context = %q", got)
	}
}
