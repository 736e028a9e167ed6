package search

import (
	"context"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

const maxInsights = 5

var (
	bulletRe = regexp.MustCompile(`^\s*[-•*]\s*`)
	numberRe = regexp.MustCompile(`^\d+[\)\.]\s*`)
)

// Agent extracts short bullet insights for a query through a search-capable
// chat model. It never returns an error to its caller: any internal failure
// degrades to a static fallback list so the pipeline keeps moving.
type Agent struct {
	model einomodel.BaseChatModel
}

func NewAgent(model einomodel.BaseChatModel) *Agent {
	return &Agent{model: model}
}

// Search returns 2-5 snippets for the query. A nil model, a transport error,
// or an empty model response all yield the fallback snippets.
func (a *Agent) Search(ctx context.Context, query string) []Snippet {
	if a.model == nil {
		return fallbackSnippets(query)
	}

	prompt := "You are a concise research assistant.\n" +
		"Task: Search the web for this user need and extract 3-5 crisp bullet insights:\n\n" +
		"QUERY: " + query + "\n\n" +
		"Return only short bullets (no URLs), simple English, helpful and neutral."

	out, err := a.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)})
	if err != nil {
		logx.Warn().Err(err).Str("query", query).Msg("web insight model failed; using fallback snippets")
		return fallbackSnippets(query)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		return fallbackSnippets(query)
	}

	bullets := toBullets(out.Content, maxInsights)
	if len(bullets) == 0 {
		return fallbackSnippets(query)
	}

	snippets := make([]Snippet, 0, len(bullets))
	for _, b := range bullets {
		snippets = append(snippets, Snippet{Title: "web insight", Snippet: b})
	}
	return snippets
}

// toBullets splits model output into clean bullet strings, stripping bullet
// and number prefixes. A single-paragraph answer falls back to sentence
// splitting so one blob still yields usable items.
func toBullets(text string, max int) []string {
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = bulletRe.ReplaceAllString(line, "")
		line = numberRe.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
		if len(cleaned) >= max {
			return cleaned
		}
	}
	if len(cleaned) > 0 {
		return cleaned
	}

	for _, p := range splitSentences(text) {
		if p != "" {
			cleaned = append(cleaned, p)
		}
		if len(cleaned) >= max {
			break
		}
	}
	return cleaned
}

func splitSentences(text string) []string {
	var out []string
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			out = append(out, strings.TrimSpace(b.String()))
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func fallbackSnippets(query string) []Snippet {
	return []Snippet{
		{Title: "web insight", Snippet: "General insight about: " + query},
		{Title: "web insight", Snippet: "Name the worry, then do one 5-minute task."},
		{Title: "web insight", Snippet: "Breathe slowly (4-4-4-4) to settle the body."},
	}
}
