package guide

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/rishi-ai/orchestrator/internal/retrieval"
)

const (
	// summarizeEveryN controls how often a conversation gets distilled into
	// a memory note.
	summarizeEveryN = 6
	noteClip        = 160
)

// Execer is the write-side database surface the memory store needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// MemoryStore distills chat turns into short embedded notes shared across
// all companions, so later sessions can recall what the user struggles with.
type MemoryStore struct {
	db       Execer
	embedder retrieval.Embedder
}

func NewMemoryStore(db Execer, embedder retrieval.Embedder) *MemoryStore {
	return &MemoryStore{db: db, embedder: embedder}
}

const insertMemorySQL = `
INSERT INTO user_memory (user_id, session_id, note, embedding)
VALUES ($1, $2, $3, $4)`

// RecordIfDue writes a memory note when the turn count hits a multiple of
// the summarization interval. Call it after appending a turn.
func (m *MemoryStore) RecordIfDue(ctx context.Context, userID, sessionID string, turns []*schema.Message) error {
	if len(turns) == 0 || len(turns)%summarizeEveryN != 0 {
		return nil
	}

	note := summarizeTurns(turns)
	if note == "" {
		return nil
	}

	vec, err := m.embedder.Embed(ctx, note)
	if err != nil {
		return fmt.Errorf("embed memory note: %w", err)
	}
	if _, err := m.db.Exec(ctx, insertMemorySQL, userID, sessionID, note, pgvector.NewVector(vec)); err != nil {
		return fmt.Errorf("insert memory note: %w", err)
	}
	return nil
}

// summarizeTurns builds a compact note from the latest user and guide
// turns. Deterministic on purpose: memory writes must not depend on a
// model call succeeding.
func summarizeTurns(turns []*schema.Message) string {
	var lastUser, lastGuide string
	for i := len(turns) - 1; i >= 0; i-- {
		switch turns[i].Role {
		case schema.User:
			if lastUser == "" {
				lastUser = turns[i].Content
			}
		case schema.Assistant:
			if lastGuide == "" {
				lastGuide = turns[i].Content
			}
		}
		if lastUser != "" && lastGuide != "" {
			break
		}
	}
	if lastUser == "" && lastGuide == "" {
		return ""
	}
	return fmt.Sprintf("User concern (short): %s. Guide hint (short): %s.",
		clip(lastUser, noteClip), clip(lastGuide, noteClip))
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
