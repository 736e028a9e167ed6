package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errx "github.com/rishi-ai/orchestrator/internal/core/error"
	"github.com/rishi-ai/orchestrator/internal/story/model"
	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// Session is one guidance session: a user's stated problem plus the emotion
// tags that seed the story pipeline and later persona routing.
type Session struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProblemText string    `json:"problem_text"`
	EmotionTags []string  `json:"emotion_tags"`
	LastStage   string    `json:"last_stage"`
	CreatedAt   time.Time `json:"created_at"`
}

// StoryRecord is a persisted composed story, kept so chat continuation can
// recover the last cited work for persona routing.
type StoryRecord struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	SessionID string              `json:"session_id"`
	Payload   *model.StoryPayload `json:"payload"`
	CreatedAt time.Time           `json:"created_at"`
}

// SessionRepository stores sessions and their stories in Redis as JSON.
type SessionRepository struct {
	rdb redis.Cmdable
}

func NewSessionRepository(rdb redis.Cmdable) *SessionRepository {
	return &SessionRepository{rdb: rdb}
}

func sessionKey(id string) string { return fmt.Sprintf("session:%s", id) }
func storyKey(id string) string   { return fmt.Sprintf("story:%s", id) }
func sessionStoriesKey(id string) string {
	return fmt.Sprintf("session:%s:stories", id)
}

// CreateSession persists a new session and returns it with a fresh id.
func (r *SessionRepository) CreateSession(ctx context.Context, userID, problemText string, emotionTags []string) (*Session, error) {
	s := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProblemText: problemText,
		EmotionTags: emotionTags,
		LastStage:   "story",
		CreatedAt:   time.Now().UTC(),
	}

	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, sessionKey(s.ID), b, 0).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", s.ID).Msg("failed to persist session")
		return nil, errx.WrapRedis(err)
	}
	return s, nil
}

// GetSession loads a session. A missing key maps to a 404 AppError so chat
// continuation can fail fast on stale references.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}

	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	return &s, nil
}

// SaveStory persists a composed story and links it to its session.
func (r *SessionRepository) SaveStory(ctx context.Context, userID, sessionID string, payload *model.StoryPayload) (*StoryRecord, error) {
	rec := &StoryRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal story: %w", err)
	}
	if err := r.rdb.Set(ctx, storyKey(rec.ID), b, 0).Err(); err != nil {
		return nil, errx.WrapRedis(err)
	}
	if err := r.rdb.RPush(ctx, sessionStoriesKey(sessionID), rec.ID).Err(); err != nil {
		return nil, errx.WrapRedis(err)
	}
	return rec, nil
}

// LastStory returns the most recent story for a session, or nil when the
// session has none yet.
func (r *SessionRepository) LastStory(ctx context.Context, sessionID string) (*StoryRecord, error) {
	id, err := r.rdb.LIndex(ctx, sessionStoriesKey(sessionID), -1).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errx.WrapRedis(err)
	}

	raw, err := r.rdb.Get(ctx, storyKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, errx.WrapRedis(err)
	}

	var rec StoryRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal story %s: %w", id, err)
	}
	return &rec, nil
}
