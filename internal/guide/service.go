package guide

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	errx "github.com/rishi-ai/orchestrator/internal/core/error"
	"github.com/rishi-ai/orchestrator/internal/repo"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// SessionStore is the session surface the chat service reads.
type SessionStore interface {
	GetSession(ctx context.Context, id string) (*repo.Session, error)
	LastStory(ctx context.Context, sessionID string) (*repo.StoryRecord, error)
}

// ConversationStore persists chat turns per session and persona.
type ConversationStore interface {
	AddMessage(ctx context.Context, sessionID, persona string, message *schema.Message) error
	LoadHistory(ctx context.Context, sessionID, persona string) ([]*schema.Message, error)
}

// Service answers guide chat turns. A session is required: chat continues a
// story, it never starts cold.
type Service struct {
	sessions      SessionStore
	conversations ConversationStore
	memory        *MemoryStore
	chatModel     einomodel.BaseChatModel
}

// NewService wires the chat service. memory and chatModel may be nil; the
// service degrades to canned persona replies without them.
func NewService(sessions SessionStore, conversations ConversationStore, memory *MemoryStore, chatModel einomodel.BaseChatModel) *Service {
	return &Service{
		sessions:      sessions,
		conversations: conversations,
		memory:        memory,
		chatModel:     chatModel,
	}
}

// Chat produces a persona reply for one user message. An unknown session is
// a hard 404: replying without the session's story context would produce
// semantically wrong guidance.
func (s *Service) Chat(ctx context.Context, sessionID, requestedPersona, message string) (*Reply, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errx.StatusOf(err) == 404 {
			return nil, errx.NotFound(errx.SessionNotFoundMessage)
		}
		return nil, err
	}

	lastWork := ""
	if last, err := s.sessions.LastStory(ctx, sessionID); err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("could not load last story for persona routing")
	} else if last != nil && last.Payload != nil && len(last.Payload.Citations) > 0 {
		lastWork = last.Payload.Citations[0].Work
	}

	persona := ResolvePersona(requestedPersona, session.EmotionTags, lastWork)
	reply := s.compose(ctx, sessionID, persona, message)

	if err := s.persistTurn(ctx, session, persona, message, reply.ReplyText); err != nil {
		// The reply is already composed; losing one turn of history is
		// preferable to failing the chat.
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("failed to persist chat turn")
	}
	return &reply, nil
}

// compose builds the reply text: model-backed when a chat model is wired,
// canned persona text otherwise or on any model failure.
func (s *Service) compose(ctx context.Context, sessionID, persona, message string) Reply {
	canned := cannedReply(persona)
	if s.chatModel == nil {
		return canned
	}

	history, err := s.conversations.LoadHistory(ctx, sessionID, persona)
	if err != nil {
		logx.Warn().Err(err).Str("session_id", sessionID).Msg("could not load chat history; replying without it")
		history = nil
	}

	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, schema.SystemMessage(personaSystemPrompt(persona)))
	msgs = append(msgs, history...)
	msgs = append(msgs, schema.UserMessage(message))

	out, err := s.chatModel.Generate(ctx, msgs)
	if err != nil || out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Warn().Err(err).Str("persona", persona).Msg("guide model reply failed; using canned reply")
		return canned
	}

	reply := canned
	reply.ReplyText = strings.TrimSpace(out.Content)
	return reply
}

func (s *Service) persistTurn(ctx context.Context, session *repo.Session, persona, userText, guideText string) error {
	if err := s.conversations.AddMessage(ctx, session.ID, persona, schema.UserMessage(userText)); err != nil {
		return fmt.Errorf("persist user turn: %w", err)
	}
	if err := s.conversations.AddMessage(ctx, session.ID, persona, schema.AssistantMessage(guideText, nil)); err != nil {
		return fmt.Errorf("persist guide turn: %w", err)
	}

	if s.memory == nil {
		return nil
	}
	turns, err := s.conversations.LoadHistory(ctx, session.ID, persona)
	if err != nil {
		return fmt.Errorf("load turns for memory: %w", err)
	}
	if err := s.memory.RecordIfDue(ctx, session.UserID, session.ID, turns); err != nil {
		return fmt.Errorf("record memory: %w", err)
	}
	return nil
}

func personaSystemPrompt(persona string) string {
	base := "You are a gentle spiritual companion. Reply in 2-4 short sentences of simple English, end with one small question, and never give medical advice."
	switch persona {
	case "krishna":
		return base + " Speak as Krishna teaching from the Bhagavad Gita: act with a calm mind, release attachment to results."
	case "jiddu":
		return base + " Speak as Jiddu Krishnamurti: invite direct observation of the worry without judgement or method."
	case "patanjali":
		return base + " Speak as Patanjali: link breath and attention, suggest one tiny practice from the Yoga Sutra tradition."
	default:
		return base + " Draw gently on any contemplative tradition that fits."
	}
}
