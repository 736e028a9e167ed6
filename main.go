package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/rishi-ai/orchestrator/internal/core"
	"github.com/rishi-ai/orchestrator/internal/guide"
	"github.com/rishi-ai/orchestrator/internal/repo"
	"github.com/rishi-ai/orchestrator/internal/retrieval"
	"github.com/rishi-ai/orchestrator/internal/search"
	"github.com/rishi-ai/orchestrator/internal/server"
	"github.com/rishi-ai/orchestrator/internal/story/graph"
	"github.com/rishi-ai/orchestrator/internal/story/graph/nodes"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	"github.com/rishi-ai/orchestrator/internal/tts"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
	pkgredis "github.com/rishi-ai/orchestrator/pkg/redis"
)

// AppConfig defines all configurable parameters for the orchestrator,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	// Infrastructure
	Redis       pkgredis.Config
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Pipeline configs
	Generator model.GeneratorModelConfig
	Insight   model.InsightModelConfig
	Prompt    model.StoryPromptConfig
	Pipeline  model.PipelineConfig
	Retrieval model.RetrievalConfig

	// Product surfaces
	TTS             tts.Config
	HTTP            server.Config
	ConversationTTL string `envconfig:"CONVERSATION_TTL" default:"720h"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		logx.Warn().Err(err).Msg("could not load .env file")
	}

	env := core.EnvironmentFromEnv()
	logx.Init(logx.LoggerOpts{Environment: env})

	// Load structured config from env
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		logx.Fatal().Err(err).Msg("failed to process environment config")
	}

	ttl, err := time.ParseDuration(cfg.ConversationTTL)
	if err != nil {
		logx.Fatal().Err(err).Str("value", cfg.ConversationTTL).Msg("invalid CONVERSATION_TTL")
	}

	rdb, err := cfg.Redis.New()
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to initialise Redis client")
	}
	defer rdb.Close()

	models, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		GeneratorCfg: &cfg.Generator,
		InsightCfg:   &cfg.Insight,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to create chat models")
	}
	embedder := retrieval.NewGenAIEmbedder(models.Client, cfg.Retrieval.EmbeddingModel)

	// Vector search is optional: without a database the retriever stage
	// degrades and stories fall back to template narration.
	var (
		retriever retrieval.Retriever
		memory    *guide.MemoryStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logx.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()
		retriever = retrieval.NewStore(pool, embedder)
		memory = guide.NewMemoryStore(pool, embedder)
	} else {
		logx.Warn().Msg("DATABASE_URL not set; running without scripture retrieval")
	}

	searchAgent := search.NewAgent(models.Insight)

	runner, err := graph.BuildStoryGraph(ctx, graph.Config{
		Retriever:      retriever,
		SearchAgent:    searchAgent,
		GeneratorModel: models.Generator,
		Prompt:         cfg.Prompt,
		Pipeline:       cfg.Pipeline,
	})
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to build story graph")
	}

	cache, err := tts.NewCache(cfg.TTS.StaticDir)
	if err != nil {
		logx.Fatal().Err(err).Msg("failed to prepare tts cache dir")
	}
	coordinator := tts.NewCoordinator(cache, newTTSProvider(cfg.TTS, cache), cfg.TTS)

	sessions := repo.NewSessionRepository(rdb)
	progress := repo.NewProgressRepository(rdb)
	conversations := repo.NewConversationRepository(rdb, ttl)
	guideSvc := guide.NewService(sessions, conversations, memory, models.Generator)

	srv := server.New(env, cfg.HTTP, server.Deps{
		Story:     runner,
		Sessions:  sessions,
		Progress:  progress,
		Guide:     guideSvc,
		TTS:       coordinator,
		Search:    searchAgent,
		StaticDir: cfg.TTS.StaticDir,
	})

	if err := srv.Run(ctx); err != nil {
		logx.Fatal().Err(err).Msg("http server failed")
	}
	logx.Info().Msg("server stopped")
}

// newTTSProvider picks the primary synthesis engine; the coordinator always
// carries the dummy fallback on top of it.
func newTTSProvider(cfg tts.Config, cache *tts.Cache) tts.Provider {
	switch cfg.Provider {
	case "espeak", "local":
		return tts.NewEspeakProvider(cache)
	case "dummy":
		return nil
	default:
		return tts.NewEdgeProvider(cache)
	}
}
