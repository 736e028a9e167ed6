package nodes

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/search"
	storycompose "github.com/rishi-ai/orchestrator/internal/story/compose"
	"github.com/rishi-ai/orchestrator/internal/story/graph/prompts"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	"github.com/rishi-ai/orchestrator/internal/story/planner"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Node names used when wiring the graph. The pipeline is a fixed linear
// chain today; the names stay stable so branches can be added later without
// renaming edges.
const (
	NodePlanner   = "planner"
	NodeRetriever = "retriever"
	NodeSearcher  = "searcher"
	NodeGenerator = "generator"
	NodeComposer  = "composer"
)

// NewPlannerPreHandler seeds the graph-local state with the run input so
// downstream stages can read the problem text and tags.
func NewPlannerPreHandler() func(context.Context, model.StoryInput, *model.PipelineState) (model.StoryInput, error) {
	return func(ctx context.Context, in model.StoryInput, s *model.PipelineState) (model.StoryInput, error) {
		s.ProblemText = in.ProblemText
		s.EmotionTags = in.EmotionTags
		return in, nil
	}
}

// NewPlannerNode maps emotion tags to an evidence plan and persona.
func NewPlannerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.StoryInput) (model.Plan, error) {
		plan := planner.PlanSources(in.ProblemText, in.EmotionTags)
		logx.Debug().
			Str("persona", plan.Persona).
			Str("work_hint", plan.WorkHint).
			Msg("evidence plan resolved")
		return plan, nil
	})
}

// NewPlannerPostHandler records the plan in state for downstream stages.
func NewPlannerPostHandler() func(context.Context, model.Plan, *model.PipelineState) (model.Plan, error) {
	return func(ctx context.Context, out model.Plan, s *model.PipelineState) (model.Plan, error) {
		s.Plan = out
		return out, nil
	}
}

// NewRetrieverNode queries the similarity index for top-k passages.
// Retrieval is best-effort: a collaborator error is logged and treated as
// zero hits so the pipeline keeps moving.
func NewRetrieverNode(r retrieval.Retriever, topK int) *compose.Lambda {
	if topK <= 0 {
		topK = 3
	}
	return compose.InvokableLambda(func(ctx context.Context, plan model.Plan) ([]retrieval.Hit, error) {
		if !plan.Has(model.SourceRetrieval) || r == nil {
			return nil, nil
		}

		var problem string
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.PipelineState) error {
			problem = s.ProblemText
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		hits, err := r.Search(ctx, problem, topK)
		if err != nil {
			logx.Warn().Err(err).Msg("retrieval failed; continuing without grounded evidence")
			return nil, nil
		}
		return hits, nil
	})
}

// NewRetrieverPostHandler records retrieval hits in state.
func NewRetrieverPostHandler() func(context.Context, []retrieval.Hit, *model.PipelineState) ([]retrieval.Hit, error) {
	return func(ctx context.Context, out []retrieval.Hit, s *model.PipelineState) ([]retrieval.Hit, error) {
		s.Hits = out
		return out, nil
	}
}

// NewSearcherNode runs the web-search enrichment stage. Skipped with an
// empty result unless the plan enables web search. The agent itself never
// fails, so this stage never fails either.
func NewSearcherNode(agent *search.Agent) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, hits []retrieval.Hit) ([]search.Snippet, error) {
		var (
			plan    model.Plan
			problem string
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.PipelineState) error {
			plan = s.Plan
			problem = s.ProblemText
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		if !plan.Has(model.SourceWebSearch) || agent == nil {
			return nil, nil
		}

		var snippets []search.Snippet
		for _, q := range search.PlanQueries(problem, plan.WorkHint) {
			snippets = append(snippets, agent.Search(ctx, q)...)
		}
		return snippets, nil
	})
}

// NewSearcherPostHandler records web snippets in state.
func NewSearcherPostHandler() func(context.Context, []search.Snippet, *model.PipelineState) ([]search.Snippet, error) {
	return func(ctx context.Context, out []search.Snippet, s *model.PipelineState) ([]search.Snippet, error) {
		s.Snippets = out
		return out, nil
	}
}

// NewGeneratorNode invokes the narration model with a composed prompt.
// Generation fills retrieval gaps: it runs when the plan requests it or when
// retrieval came back empty. Model failure degrades to empty narration; the
// composer substitutes the fixed template, keeping every stage best-effort.
func NewGeneratorNode(cm einomodel.BaseChatModel, promptCfg model.StoryPromptConfig) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, snippets []search.Snippet) (string, error) {
		var (
			plan  model.Plan
			in    model.StoryInput
			hits  []retrieval.Hit
			snips []search.Snippet
		)
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.PipelineState) error {
			plan = s.Plan
			in = model.StoryInput{ProblemText: s.ProblemText, EmotionTags: s.EmotionTags}
			hits = s.Hits
			snips = s.Snippets
			return nil
		}); err != nil {
			return "", fmt.Errorf("failed to access state: %w", err)
		}

		if !plan.Has(model.SourceGeneration) && len(hits) > 0 {
			return "", nil
		}
		if cm == nil {
			return "", nil
		}

		sysPrompt, err := prompts.RenderStorySystem(ctx, promptCfg, plan.Persona)
		if err != nil {
			return "", fmt.Errorf("render story system prompt: %w", err)
		}
		userPrompt, err := prompts.RenderStoryUser(ctx, in, hits, snips)
		if err != nil {
			return "", fmt.Errorf("render story user prompt: %w", err)
		}

		out, err := cm.Generate(ctx, []*schema.Message{
			schema.SystemMessage(sysPrompt),
			schema.UserMessage(userPrompt),
		})
		if err != nil {
			logx.Warn().Err(err).Msg("narration model failed; composer will use templated narration")
			return "", nil
		}
		if out == nil {
			return "", nil
		}
		return strings.TrimSpace(out.Content), nil
	})
}

// NewGeneratorPostHandler records the narration in state.
func NewGeneratorPostHandler() func(context.Context, string, *model.PipelineState) (string, error) {
	return func(ctx context.Context, out string, s *model.PipelineState) (string, error) {
		s.Narration = out
		return out, nil
	}
}

// NewComposerNode deterministically merges the accumulated evidence into the
// final story payload. Pure given its inputs; no I/O.
func NewComposerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, narration string) (*model.StoryPayload, error) {
		var hits []retrieval.Hit
		if err := compose.ProcessState(ctx, func(_ context.Context, s *model.PipelineState) error {
			hits = s.Hits
			return nil
		}); err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		payload := storycompose.Story(hits, narration)
		logx.Debug().
			Int("hits", len(hits)).
			Int("takeaways", len(payload.Takeaways)).
			Msg("story payload composed")
		return payload, nil
	})
}
