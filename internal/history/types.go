package history

import "context"

// Turn is one query/response pair in a user's conversation history.
// Turns are immutable once created; new turns are prepended, so index 0
// is always the most recent exchange.
type Turn struct {
	Query    string `json:"query"`
	Response string `json:"response"`
}

// Store persists and retrieves per-user chat history.
//
// Save replaces the stored sequence wholesale; callers compute the full
// new history and pass it in. Concurrent saves for the same user resolve
// last-write-wins.
type Store interface {
	Load(ctx context.Context, userID string) ([]Turn, error)
	Save(ctx context.Context, userID string, turns []Turn) error
	Clear(ctx context.Context, userID string) error
	Close() error
}
