// Package pipeline sequences one chat turn: retrieve context documents,
// compose the grounded prompt, generate an answer, persist the new turn.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ent0n29/finchat/internal/history"
	"github.com/ent0n29/finchat/internal/llm"
	"github.com/ent0n29/finchat/internal/observability"
	"github.com/ent0n29/finchat/internal/prompt"
	"github.com/ent0n29/finchat/internal/retrieval"
)

// ErrEmptyQuery rejects a blank query before any pipeline stage runs.
var ErrEmptyQuery = errors.New("query must not be empty")

// PersistenceError reports a history store failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Orchestrator runs the retrieval-augmented answer pipeline. All
// collaborators are injected; the orchestrator owns no connections itself.
type Orchestrator struct {
	store      history.Store
	retriever  retrieval.Retriever
	generators *llm.Registry
	metrics    *observability.Metrics
	topK       int
}

func New(store history.Store, retriever retrieval.Retriever, generators *llm.Registry, metrics *observability.Metrics, topK int) *Orchestrator {
	if topK <= 0 {
		topK = retrieval.DefaultK
	}
	return &Orchestrator{
		store:      store,
		retriever:  retriever,
		generators: generators,
		metrics:    metrics,
		topK:       topK,
	}
}

// RunQuery executes one turn for a user. The stages run strictly in
// sequence; any failure aborts before history is touched, so no partial
// turn is ever persisted. On success the returned history has the new turn
// at index 0 and the prior turns unchanged behind it.
func (o *Orchestrator) RunQuery(ctx context.Context, userID, query string, backend llm.Backend) ([]history.Turn, error) {
	started := time.Now()
	if strings.TrimSpace(query) == "" {
		o.countQuery(backend, "empty_query")
		return nil, ErrEmptyQuery
	}

	prior, err := o.store.Load(ctx, userID)
	if err != nil {
		o.failStage(backend, "load")
		return nil, &PersistenceError{Op: "load", Err: err}
	}

	docs, err := o.retriever.Retrieve(ctx, query, o.topK)
	if err != nil {
		o.failStage(backend, "retrieve")
		return nil, err
	}
	if o.metrics != nil {
		o.metrics.RetrievedDocs.Observe(float64(len(docs)))
	}

	composed := prompt.Compose(prior, docs, query)

	answer, err := o.generators.Generate(ctx, backend, composed)
	if err != nil {
		o.failStage(backend, "generate")
		return nil, err
	}

	updated := make([]history.Turn, 0, len(prior)+1)
	updated = append(updated, history.Turn{Query: query, Response: answer})
	updated = append(updated, prior...)

	if err := o.store.Save(ctx, userID, updated); err != nil {
		o.failStage(backend, "persist")
		return nil, &PersistenceError{Op: "save", Err: err}
	}

	o.countQuery(backend, "ok")
	if o.metrics != nil {
		o.metrics.ObserveQueryLatency(time.Since(started))
	}
	return updated, nil
}

// LoadHistory hydrates a session with the persisted turn sequence,
// most-recent-first. Unknown users get an empty sequence.
func (o *Orchestrator) LoadHistory(ctx context.Context, userID string) ([]history.Turn, error) {
	turns, err := o.store.Load(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Err: err}
	}
	return turns, nil
}

// ClearHistory resets the stored sequence to empty.
func (o *Orchestrator) ClearHistory(ctx context.Context, userID string) error {
	if err := o.store.Clear(ctx, userID); err != nil {
		return &PersistenceError{Op: "clear", Err: err}
	}
	return nil
}

func (o *Orchestrator) countQuery(backend llm.Backend, outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.Queries.WithLabelValues(string(backend), outcome).Inc()
}

func (o *Orchestrator) failStage(backend llm.Backend, stage string) {
	if o.metrics == nil {
		return
	}
	o.metrics.StageErrors.WithLabelValues(stage).Inc()
	o.metrics.Queries.WithLabelValues(string(backend), "error").Inc()
}
