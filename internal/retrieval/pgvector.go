package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	logx "github.com/rishi-ai/orchestrator/pkg/logger"
)

// searchTimeout bounds a single vector search so a slow index never stalls
// the pipeline for longer than one request is worth waiting.
const searchTimeout = 10 * time.Second

// Querier is the subset of pgx pool behavior the store needs. Defined on the
// consumer side so tests can substitute a fake without a live database.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store performs similarity search over scripture passages stored in
// PostgreSQL with the pgvector extension. Query embeddings are produced by
// the configured Embedder; ranking uses cosine distance.
//
// Store is safe for concurrent use.
type Store struct {
	db       Querier
	embedder Embedder
}

func NewStore(db Querier, embedder Embedder) *Store {
	return &Store{db: db, embedder: embedder}
}

const searchSQL = `
SELECT content, metadata, 1 - (embedding <=> $1) AS similarity
FROM passages
ORDER BY embedding <=> $1
LIMIT $2`

// Search embeds the query and returns the k nearest passages ordered by
// descending similarity.
func (s *Store) Search(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = 3
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx, searchSQL, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			content  string
			metaJSON []byte
			sim      float64
		)
		if err := rows.Scan(&content, &metaJSON, &sim); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}

		var meta Metadata
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &meta); err != nil {
				// Malformed metadata should not discard the passage itself.
				logx.Warn().Err(err).Msg("unparseable passage metadata; keeping document without citation")
				meta = Metadata{}
			}
		}

		hits = append(hits, Hit{
			Document:   content,
			Meta:       meta,
			Similarity: clamp01(sim),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search rows: %w", err)
	}

	logx.Debug().Int("k", k).Int("hits", len(hits)).Msg("vector search complete")
	return hits, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ Retriever = (*Store)(nil)
