package graph

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/search"
	"github.com/rishi-ai/orchestrator/internal/story/graph/nodes"
	"github.com/rishi-ai/orchestrator/internal/story/graph/observers"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Runner executes the compiled story pipeline for one request.
type Runner interface {
	Invoke(ctx context.Context, in model.StoryInput) (*model.StoryPayload, error)
}

// Config holds everything needed to compose the story pipeline end-to-end.
// Retriever, SearchAgent, and GeneratorModel may each be nil: the matching
// stage degrades to its empty result and the composer still produces a
// complete payload.
type Config struct {
	Retriever      retrieval.Retriever
	SearchAgent    *search.Agent
	GeneratorModel einomodel.BaseChatModel
	Prompt         model.StoryPromptConfig
	Pipeline       model.PipelineConfig
}

// GraphBuilder handles the construction of the story pipeline graph.
type GraphBuilder struct {
	config *Config
	graph  *compose.Graph[model.StoryInput, *model.StoryPayload]
}

type graphRunner struct {
	runnable compose.Runnable[model.StoryInput, *model.StoryPayload]
}

func (r *graphRunner) Invoke(ctx context.Context, in model.StoryInput) (*model.StoryPayload, error) {
	out, err := r.runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("pipeline returned nil payload")
	}
	return out, nil
}

// BuildStoryGraph composes the linear pipeline
// Planner → Retriever → Searcher → Generator → Composer and returns a Runner.
func BuildStoryGraph(ctx context.Context, cfg Config) (Runner, error) {
	if cfg.Retriever == nil {
		logx.Warn().Msg("no retriever configured; stories will not be grounded in scripture")
	}
	if cfg.GeneratorModel == nil {
		logx.Warn().Msg("no generator model configured; narration falls back to templates")
	}

	builder := &GraphBuilder{
		config: &cfg,
		graph: compose.NewGraph[model.StoryInput, *model.StoryPayload](
			compose.WithGenLocalState(func(ctx context.Context) *model.PipelineState {
				return &model.PipelineState{}
			}),
		),
	}

	builder.addNodes()
	builder.addEdges()

	return builder.compile(ctx)
}

// addNodes adds all stage nodes to the graph.
func (b *GraphBuilder) addNodes() {
	b.graph.AddLambdaNode(nodes.NodePlanner,
		nodes.NewPlannerNode(),
		compose.WithStatePreHandler(nodes.NewPlannerPreHandler()),
		compose.WithStatePostHandler(nodes.NewPlannerPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeRetriever,
		nodes.NewRetrieverNode(b.config.Retriever, b.config.Pipeline.TopK),
		compose.WithStatePostHandler(nodes.NewRetrieverPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeSearcher,
		nodes.NewSearcherNode(b.config.SearchAgent),
		compose.WithStatePostHandler(nodes.NewSearcherPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeGenerator,
		nodes.NewGeneratorNode(b.config.GeneratorModel, b.config.Prompt),
		compose.WithStatePostHandler(nodes.NewGeneratorPostHandler()),
	)

	b.graph.AddLambdaNode(nodes.NodeComposer,
		nodes.NewComposerNode(),
	)
}

// addEdges wires the fixed linear stage order. Branching (e.g. skipping the
// searcher entirely) would hang off these same nodes later.
func (b *GraphBuilder) addEdges() {
	edges := [][2]string{
		{compose.START, nodes.NodePlanner},
		{nodes.NodePlanner, nodes.NodeRetriever},
		{nodes.NodeRetriever, nodes.NodeSearcher},
		{nodes.NodeSearcher, nodes.NodeGenerator},
		{nodes.NodeGenerator, nodes.NodeComposer},
		{nodes.NodeComposer, compose.END},
	}

	for _, edge := range edges {
		b.graph.AddEdge(edge[0], edge[1])
	}
}

// compile finalizes and compiles the graph.
func (b *GraphBuilder) compile(ctx context.Context) (Runner, error) {
	// Linear chain needs few steps; leave headroom for future branches.
	runnable, err := b.graph.Compile(ctx, compose.WithMaxRunSteps(16))
	if err != nil {
		logx.Error().Err(err).Msg("error compiling story graph")
		return nil, fmt.Errorf("error compiling story graph: %w", err)
	}

	logx.Debug().Msg("story graph compiled successfully")
	return &graphRunner{runnable: runnable}, nil
}
