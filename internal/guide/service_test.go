package guide

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/rishi-ai/orchestrator/internal/core/error"
	"github.com/rishi-ai/orchestrator/internal/repo"
	"github.com/rishi-ai/orchestrator/internal/story/model"
)

type stubSessions struct {
	session *repo.Session
	story   *repo.StoryRecord
}

func (s *stubSessions) GetSession(ctx context.Context, id string) (*repo.Session, error) {
	if s.session == nil || s.session.ID != id {
		return nil, errx.NotFound(errx.RedisNotFoundMessage)
	}
	return s.session, nil
}

func (s *stubSessions) LastStory(ctx context.Context, sessionID string) (*repo.StoryRecord, error) {
	return s.story, nil
}

type stubConversations struct {
	turns map[string][]*schema.Message
}

func newStubConversations() *stubConversations {
	return &stubConversations{turns: map[string][]*schema.Message{}}
}

func (s *stubConversations) key(sessionID, persona string) string { return sessionID + "/" + persona }

func (s *stubConversations) AddMessage(ctx context.Context, sessionID, persona string, m *schema.Message) error {
	k := s.key(sessionID, persona)
	s.turns[k] = append(s.turns[k], m)
	return nil
}

func (s *stubConversations) LoadHistory(ctx context.Context, sessionID, persona string) ([]*schema.Message, error) {
	return s.turns[s.key(sessionID, persona)], nil
}

type stubChatModel struct {
	reply    string
	err      error
	nilReply bool
}

func (m *stubChatModel) Generate(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.nilReply {
		return nil, nil
	}
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *stubChatModel) Stream(ctx context.Context, in []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func testSession() *repo.Session {
	return &repo.Session{ID: "sess-1", UserID: "user-1", ProblemText: "exam worry", EmotionTags: []string{"anxiety"}}
}

func TestChatUnknownSessionFailsFast(t *testing.T) {
	svc := NewService(&stubSessions{}, newStubConversations(), nil, nil)

	_, err := svc.Chat(context.Background(), "missing", "", "help")
	if err == nil {
		t.Fatal("unknown session must fail")
	}
	if errx.StatusOf(err) != http.StatusNotFound {
		t.Errorf("status = %d, want 404", errx.StatusOf(err))
	}
	if errx.MessageOf(err) != errx.SessionNotFoundMessage {
		t.Errorf("message = %q, want session-specific message", errx.MessageOf(err))
	}
}

func TestChatRoutesPersonaFromLastWork(t *testing.T) {
	sessions := &stubSessions{
		session: &repo.Session{ID: "sess-1", UserID: "user-1", EmotionTags: []string{"sadness"}},
		story: &repo.StoryRecord{Payload: &model.StoryPayload{
			Citations: []model.Citation{{Work: "Bhagavad Gita", Ref: "2.47"}},
		}},
	}
	svc := NewService(sessions, newStubConversations(), nil, nil)

	reply, err := svc.Chat(context.Background(), "sess-1", "auto", "what now?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Persona != model.PersonaKrishna {
		t.Errorf("persona = %q, want krishna from last cited work", reply.Persona)
	}
	if len(reply.Citations) == 0 {
		t.Error("krishna reply must cite the Gita")
	}
}

func TestChatPersistsBothTurns(t *testing.T) {
	convs := newStubConversations()
	svc := NewService(&stubSessions{session: testSession()}, convs, nil, nil)

	if _, err := svc.Chat(context.Background(), "sess-1", "patanjali", "I cannot sleep"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	turns := convs.turns["sess-1/patanjali"]
	if len(turns) != 2 {
		t.Fatalf("persisted %d turns, want user + guide", len(turns))
	}
	if turns[0].Role != schema.User || turns[0].Content != "I cannot sleep" {
		t.Errorf("first turn = %+v", turns[0])
	}
	if turns[1].Role != schema.Assistant {
		t.Errorf("second turn role = %q, want assistant", turns[1].Role)
	}
}

func TestChatUsesModelReplyWhenAvailable(t *testing.T) {
	svc := NewService(&stubSessions{session: testSession()}, newStubConversations(), nil,
		&stubChatModel{reply: "Breathe once, slowly. What changed?"})

	reply, err := svc.Chat(context.Background(), "sess-1", "", "still anxious")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.ReplyText != "Breathe once, slowly. What changed?" {
		t.Errorf("reply = %q, want model text", reply.ReplyText)
	}
}

func TestChatFallsBackToCannedReplyOnModelFailure(t *testing.T) {
	svc := NewService(&stubSessions{session: testSession()}, newStubConversations(), nil,
		&stubChatModel{err: errors.New("quota exceeded")})

	reply, err := svc.Chat(context.Background(), "sess-1", "", "still anxious")
	if err != nil {
		t.Fatalf("model failure must not fail the chat: %v", err)
	}
	// anxiety tag routes to patanjali; its canned text mentions breath
	if reply.Persona != model.PersonaPatanjali {
		t.Errorf("persona = %q", reply.Persona)
	}
	if !strings.Contains(reply.ReplyText, "breath") {
		t.Errorf("expected canned patanjali reply, got %q", reply.ReplyText)
	}
}

func TestChatFallsBackWhenModelReturnsNil(t *testing.T) {
	svc := NewService(&stubSessions{session: testSession()}, newStubConversations(), nil,
		&stubChatModel{nilReply: true})

	reply, err := svc.Chat(context.Background(), "sess-1", "", "still anxious")
	if err != nil {
		t.Fatalf("nil model output must not fail the chat: %v", err)
	}
	if !strings.Contains(reply.ReplyText, "breath") {
		t.Errorf("expected canned patanjali reply, got %q", reply.ReplyText)
	}
}

func TestSummarizeTurns(t *testing.T) {
	turns := []*schema.Message{
		schema.UserMessage("first worry"),
		schema.AssistantMessage("first hint", nil),
		schema.UserMessage("I keep replaying the interview"),
		schema.AssistantMessage("Watch the replay like a cloud.", nil),
	}

	note := summarizeTurns(turns)
	if !strings.Contains(note, "I keep replaying the interview") {
		t.Errorf("note misses latest user turn: %q", note)
	}
	if !strings.Contains(note, "Watch the replay like a cloud.") {
		t.Errorf("note misses latest guide turn: %q", note)
	}
	if summarizeTurns(nil) != "" {
		t.Error("empty turns must produce no note")
	}
}
