package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/rishi-ai/orchestrator/internal/core"
	errx "github.com/rishi-ai/orchestrator/internal/core/error"
	"github.com/rishi-ai/orchestrator/internal/guide"
	"github.com/rishi-ai/orchestrator/internal/repo"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	"github.com/rishi-ai/orchestrator/internal/tts"
)

func init() { gin.SetMode(gin.TestMode) }

type stubRunner struct {
	payload *model.StoryPayload
	err     error
	lastIn  model.StoryInput
}

func (r *stubRunner) Invoke(ctx context.Context, in model.StoryInput) (*model.StoryPayload, error) {
	r.lastIn = in
	return r.payload, r.err
}

type stubSessions struct {
	created *repo.Session
	saved   *model.StoryPayload
}

func (s *stubSessions) CreateSession(ctx context.Context, userID, problemText string, tags []string) (*repo.Session, error) {
	s.created = &repo.Session{ID: "sess-1", UserID: userID, ProblemText: problemText, EmotionTags: tags}
	return s.created, nil
}

func (s *stubSessions) SaveStory(ctx context.Context, userID, sessionID string, payload *model.StoryPayload) (*repo.StoryRecord, error) {
	s.saved = payload
	return &repo.StoryRecord{ID: "story-1", SessionID: sessionID, Payload: payload}, nil
}

type stubProgress struct {
	upserts int
}

func (p *stubProgress) UpsertUser(ctx context.Context, userID string) error {
	p.upserts++
	return nil
}

func (p *stubProgress) GetProgress(ctx context.Context, userID string) (*repo.Progress, error) {
	return &repo.Progress{KarmicPoints: 75, Level: repo.LevelFromPoints(75)}, nil
}

type stubGuide struct {
	reply *guide.Reply
	err   error
}

func (g *stubGuide) Chat(ctx context.Context, sessionID, persona, message string) (*guide.Reply, error) {
	return g.reply, g.err
}

type stubTTS struct {
	art *tts.Artifact
}

func (t *stubTTS) Synthesize(ctx context.Context, text, voice, speed, format string) (*tts.Artifact, error) {
	return t.art, nil
}

func testPayload() *model.StoryPayload {
	return &model.StoryPayload{
		Title:         "Do Your Part. Let Worry Be Light.",
		NarrationText: "Take one small step today.",
		Takeaways:     []string{"Do one tiny step today."},
		Citations:     []model.Citation{{Work: "Bhagavad Gita", Ref: "2.47"}},
	}
}

func newTestServer(deps Deps) *Server {
	return New(core.Testing, Config{BgMusicURL: "/audio/bg.mp3"}, deps)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(Deps{})
	w := doJSON(t, s.Handler(), http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCreateStory(t *testing.T) {
	runner := &stubRunner{payload: testPayload()}
	sessions := &stubSessions{}
	progress := &stubProgress{}
	s := newTestServer(Deps{Story: runner, Sessions: sessions, Progress: progress})

	w := doJSON(t, s.Handler(), http.MethodPost, "/story", gin.H{
		"user_id":      "user-1",
		"problem_text": "exam worry",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp storyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("session_id = %q", resp.SessionID)
	}
	if resp.Story.BgMusicURL != "/audio/bg.mp3" {
		t.Errorf("bg_music_url = %q", resp.Story.BgMusicURL)
	}
	// empty tags default to the anxiety cluster
	if len(runner.lastIn.EmotionTags) != 2 || runner.lastIn.EmotionTags[0] != "anxiety" {
		t.Errorf("pipeline tags = %v, want defaults", runner.lastIn.EmotionTags)
	}
	if progress.upserts != 1 {
		t.Errorf("user upserted %d times, want 1", progress.upserts)
	}
	if sessions.saved == nil {
		t.Error("story was not persisted")
	}
}

func TestCreateStoryValidatesInput(t *testing.T) {
	s := newTestServer(Deps{Story: &stubRunner{payload: testPayload()}, Sessions: &stubSessions{}, Progress: &stubProgress{}})

	w := doJSON(t, s.Handler(), http.MethodPost, "/story", gin.H{"user_id": "user-1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing problem_text: status = %d, want 400", w.Code)
	}
}

func TestCreateStoryPipelineFailure(t *testing.T) {
	runner := &stubRunner{err: errors.New("graph exploded")}
	s := newTestServer(Deps{Story: runner, Sessions: &stubSessions{}, Progress: &stubProgress{}})

	w := doJSON(t, s.Handler(), http.MethodPost, "/story", gin.H{
		"user_id":      "user-1",
		"problem_text": "exam worry",
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(errx.PipelineErrorMessage)) {
		t.Errorf("body %s should carry the safe pipeline message", w.Body.String())
	}
}

func TestGuideChatUnknownSession(t *testing.T) {
	g := &stubGuide{err: errx.NotFound(errx.SessionNotFoundMessage)}
	s := newTestServer(Deps{Guide: g})

	w := doJSON(t, s.Handler(), http.MethodPost, "/guide/chat", gin.H{
		"session_id": "missing",
		"message":    "help",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(errx.SessionNotFoundMessage)) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestGuideChatReply(t *testing.T) {
	g := &stubGuide{reply: &guide.Reply{ReplyText: "Act from a quiet mind.", Persona: model.PersonaKrishna}}
	s := newTestServer(Deps{Guide: g})

	w := doJSON(t, s.Handler(), http.MethodPost, "/guide/chat", gin.H{
		"session_id": "sess-1",
		"message":    "what now?",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var reply guide.Reply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatal(err)
	}
	if reply.Persona != model.PersonaKrishna {
		t.Errorf("persona = %q", reply.Persona)
	}
}

func TestPracticeSuggest(t *testing.T) {
	s := newTestServer(Deps{})

	w := doJSON(t, s.Handler(), http.MethodPost, "/practice/suggest", gin.H{
		"emotion_tags": []string{"anxiety"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Practices []struct {
			Title string `json:"title"`
		} `json:"practices"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Practices) != 3 {
		t.Errorf("got %d practices, want 3 for anxious tags", len(resp.Practices))
	}
}

func TestGetProgress(t *testing.T) {
	s := newTestServer(Deps{Progress: &stubProgress{}})

	w := doJSON(t, s.Handler(), http.MethodGet, "/progress?user_id=user-1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var p repo.Progress
	if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
		t.Fatal(err)
	}
	if p.Level != "Seeker" {
		t.Errorf("level = %q, want Seeker for 75 points", p.Level)
	}

	w = doJSON(t, s.Handler(), http.MethodGet, "/progress", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing user_id: status = %d, want 400", w.Code)
	}
}

func TestKnowledgePlan(t *testing.T) {
	s := newTestServer(Deps{})

	w := doJSON(t, s.Handler(), http.MethodPost, "/knowledge/plan", gin.H{
		"problem_text":  "exam worry",
		"rag_citations": []gin.H{{"work": "Bhagavad Gita", "ref": "2.47"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp knowledgePlanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Queries) != 2 {
		t.Errorf("got %d queries, want 2", len(resp.Queries))
	}
	if !resp.Adequate {
		t.Error("a grounded citation must be adequate")
	}
}

func TestSynthesize(t *testing.T) {
	art := &tts.Artifact{
		URL:      "/static/tts/abc.mp3",
		Voice:    "en-US-AriaNeural",
		Speed:    "+0%",
		Format:   "mp3",
		Provider: "edge",
		Size:     9000,
	}
	s := newTestServer(Deps{TTS: &stubTTS{art: art}})

	w := doJSON(t, s.Handler(), http.MethodPost, "/tts", gin.H{"text": "hello"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp ttsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.AudioURL != art.URL || resp.Provider != "edge" {
		t.Errorf("resp = %+v", resp)
	}

	w = doJSON(t, s.Handler(), http.MethodPost, "/tts", gin.H{"text": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty text: status = %d, want 400", w.Code)
	}
}
