package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	errx "github.com/rishi-ai/orchestrator/internal/core/error"
	"github.com/rishi-ai/orchestrator/internal/guide"
	"github.com/rishi-ai/orchestrator/internal/practice"
	"github.com/rishi-ai/orchestrator/internal/search"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	"github.com/rishi-ai/orchestrator/internal/story/planner"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// defaultEmotionTags seed the pipeline when the client sends none.
var defaultEmotionTags = []string{"anxiety", "overthinking"}

func fail(c *gin.Context, err error) {
	c.JSON(errx.StatusOf(err), gin.H{"error": errx.MessageOf(err)})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type storyRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	ProblemText string   `json:"problem_text" binding:"required"`
	EmotionTags []string `json:"emotion_tags"`
}

type storyResponse struct {
	Story     *model.StoryPayload `json:"story"`
	SessionID string              `json:"session_id"`
}

func (s *Server) createStory(c *gin.Context) {
	var req storyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.deps.Story == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "story pipeline not configured"})
		return
	}

	ctx := c.Request.Context()
	tags := req.EmotionTags
	if len(tags) == 0 {
		tags = defaultEmotionTags
	}

	if err := s.deps.Progress.UpsertUser(ctx, req.UserID); err != nil {
		fail(c, err)
		return
	}
	session, err := s.deps.Sessions.CreateSession(ctx, req.UserID, req.ProblemText, tags)
	if err != nil {
		fail(c, err)
		return
	}

	payload, err := s.deps.Story.Invoke(ctx, model.StoryInput{
		ProblemText: req.ProblemText,
		EmotionTags: tags,
	})
	if err != nil {
		logx.Error().Err(err).Str("session_id", session.ID).Msg("story pipeline failed")
		fail(c, errx.New(err, http.StatusInternalServerError, errx.PipelineErrorMessage))
		return
	}
	payload.BgMusicURL = s.cfg.BgMusicURL

	if _, err := s.deps.Sessions.SaveStory(ctx, req.UserID, session.ID, payload); err != nil {
		// The story is already composed; losing the record degrades later
		// persona routing but must not fail the request.
		logx.Warn().Err(err).Str("session_id", session.ID).Msg("failed to persist story")
	}

	c.JSON(http.StatusOK, storyResponse{Story: payload, SessionID: session.ID})
}

type storyQARequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question" binding:"required"`
}

func (s *Server) storyQA(c *gin.Context) {
	var req storyQARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply := guide.StoryQA()
	c.JSON(http.StatusOK, gin.H{
		"answer_text": reply.ReplyText,
		"citations":   reply.Citations,
	})
}

type guideChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Persona   string `json:"persona"`
}

func (s *Server) guideChat(c *gin.Context) {
	var req guideChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.deps.Guide == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "guide chat not configured"})
		return
	}

	reply, err := s.deps.Guide.Chat(c.Request.Context(), req.SessionID, req.Persona, req.Message)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

type practiceRequest struct {
	EmotionTags []string `json:"emotion_tags"`
}

func (s *Server) practiceSuggest(c *gin.Context) {
	var req practiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"practices": practice.Suggest(req.EmotionTags)})
}

func (s *Server) getProgress(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	p, err := s.deps.Progress.GetProgress(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type knowledgePlanRequest struct {
	ProblemText  string           `json:"problem_text" binding:"required"`
	RAGCitations []model.Citation `json:"rag_citations"`
}

type knowledgePlanResponse struct {
	Queries  []string         `json:"queries"`
	Adequate bool             `json:"adequate"`
	Reason   string           `json:"reason"`
	Snippets []search.Snippet `json:"snippets,omitempty"`
}

func (s *Server) knowledgePlan(c *gin.Context) {
	var req knowledgePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	workHint := ""
	if len(req.RAGCitations) > 0 {
		workHint = req.RAGCitations[0].Work
	}
	queries := search.PlanQueries(req.ProblemText, workHint)

	var snippets []search.Snippet
	if s.deps.Search != nil {
		for _, q := range queries {
			snippets = append(snippets, s.deps.Search.Search(c.Request.Context(), q)...)
		}
	}
	adeq := planner.AdequacyGate(req.ProblemText, req.RAGCitations, len(snippets))

	c.JSON(http.StatusOK, knowledgePlanResponse{
		Queries:  queries,
		Adequate: adeq.Sufficient,
		Reason:   adeq.Reason,
		Snippets: snippets,
	})
}

type ttsRequest struct {
	Text   string `json:"text" binding:"required,max=5000"`
	Voice  string `json:"voice"`
	Speed  string `json:"speed"`
	Format string `json:"format"`
}

type ttsResponse struct {
	AudioURL string `json:"audio_url"`
	Voice    string `json:"voice"`
	Speed    string `json:"speed"`
	Format   string `json:"format"`
	Cached   bool   `json:"cached"`
	Provider string `json:"provider"`
	Size     int64  `json:"size"`
}

func (s *Server) synthesize(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.deps.TTS == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tts not configured"})
		return
	}

	art, err := s.deps.TTS.Synthesize(c.Request.Context(), req.Text, req.Voice, req.Speed, req.Format)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ttsResponse{
		AudioURL: art.URL,
		Voice:    art.Voice,
		Speed:    art.Speed,
		Format:   art.Format,
		Cached:   art.Cached,
		Provider: art.Provider,
		Size:     art.Size,
	})
}
