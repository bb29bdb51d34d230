package retrieval

import (
	"context"
	"errors"
)

// DefaultK is the number of documents fetched per query when the caller
// does not ask for a specific count.
const DefaultK = 3

// ErrUnavailable reports that the vector index (or the embedder in front
// of it) could not be reached. Zero matching documents is not an error.
var ErrUnavailable = errors.New("retrieval backend unavailable")

// Document is one retrieved unit of context.
type Document struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Retriever returns the k most similar documents for a query, ordered by
// descending similarity. Implementations perform no re-ranking, filtering
// or deduplication.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Document, error)
}
