package retrieval

import "context"

// Metadata carries the citation fields attached to an indexed passage.
// All fields are optional; empty strings mean the source did not record them.
type Metadata struct {
	Work    string `json:"work,omitempty"`
	Chapter string `json:"chapter,omitempty"`
	Verse   string `json:"verse,omitempty"`
}

// Hit is a single scored passage returned by similarity search.
type Hit struct {
	Document   string   `json:"document"`
	Meta       Metadata `json:"meta"`
	Similarity float64  `json:"similarity"` // cosine similarity in [0,1]
}

// Retriever is the similarity-search boundary consumed by the story pipeline.
// Implementations must return hits ordered by descending similarity. Callers
// treat both errors and empty results as "no grounded evidence".
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Hit, error)
}
