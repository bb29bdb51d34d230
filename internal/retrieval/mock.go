package retrieval

import "context"

// MockRetriever returns canned documents. Used in tests and when no vector
// index is configured.
type MockRetriever struct {
	Docs []Document
	Err  error
}

func NewMockRetriever(docs ...Document) *MockRetriever {
	return &MockRetriever{Docs: docs}
}

func (m *MockRetriever) Retrieve(ctx context.Context, _ string, k int) ([]Document, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if k <= 0 {
		k = DefaultK
	}
	if k > len(m.Docs) {
		k = len(m.Docs)
	}
	out := make([]Document, k)
	copy(out, m.Docs[:k])
	return out, nil
}
