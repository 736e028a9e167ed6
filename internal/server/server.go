// Package server exposes the HTTP boundary: story creation, guide chat,
// practices, progress, knowledge planning, and speech synthesis.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rishi-ai/orchestrator/internal/core"
	"github.com/rishi-ai/orchestrator/internal/guide"
	"github.com/rishi-ai/orchestrator/internal/repo"
	"github.com/rishi-ai/orchestrator/internal/search"
	"github.com/rishi-ai/orchestrator/internal/story/graph"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	"github.com/rishi-ai/orchestrator/internal/tts"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Config is the HTTP server configuration.
type Config struct {
	Addr            string        `envconfig:"HTTP_ADDR" default:":8000"`
	AllowOrigin     string        `envconfig:"ALLOW_ORIGIN" default:"http://localhost:3000"`
	BgMusicURL      string        `envconfig:"BG_MUSIC_URL" default:"/audio/bg.mp3"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// SessionStore is the session persistence surface the handlers need.
type SessionStore interface {
	CreateSession(ctx context.Context, userID, problemText string, emotionTags []string) (*repo.Session, error)
	SaveStory(ctx context.Context, userID, sessionID string, payload *model.StoryPayload) (*repo.StoryRecord, error)
}

// ProgressStore tracks per-user totals.
type ProgressStore interface {
	UpsertUser(ctx context.Context, userID string) error
	GetProgress(ctx context.Context, userID string) (*repo.Progress, error)
}

// GuideChat answers one chat turn.
type GuideChat interface {
	Chat(ctx context.Context, sessionID, persona, message string) (*guide.Reply, error)
}

// Synthesizer renders text to a playable audio artifact.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, speed, format string) (*tts.Artifact, error)
}

// Deps bundles everything the server serves. Story, Guide, TTS, and Search
// may be nil in partial deployments; the matching routes then return 503.
type Deps struct {
	Story     graph.Runner
	Sessions  SessionStore
	Progress  ProgressStore
	Guide     GuideChat
	TTS       Synthesizer
	Search    *search.Agent
	StaticDir string
}

// Server is the HTTP boundary of the orchestrator.
type Server struct {
	engine *gin.Engine
	cfg    Config
	deps   Deps
}

func New(env core.Environment, cfg Config, deps Deps) *Server {
	if env == core.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: gin.New(),
		cfg:    cfg,
		deps:   deps,
	}
	s.engine.Use(gin.Recovery(), s.cors())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.POST("/story", s.createStory)
	s.engine.POST("/story/qa", s.storyQA)
	s.engine.POST("/guide/chat", s.guideChat)
	s.engine.POST("/practice/suggest", s.practiceSuggest)
	s.engine.GET("/progress", s.getProgress)
	s.engine.POST("/knowledge/plan", s.knowledgePlan)
	s.engine.POST("/tts", s.synthesize)

	if s.deps.StaticDir != "" {
		s.engine.Static("/static", s.deps.StaticDir)
	}
}

// cors allows the local web client to call the API.
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", s.cfg.AllowOrigin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is canceled, then drains within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logx.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logx.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
