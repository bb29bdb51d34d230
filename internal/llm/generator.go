// Package llm dispatches composed prompts to interchangeable hosted
// language-model backends.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces free-form text from a flattened prompt. Calls block
// until the full response is returned; output is passed through verbatim
// with no validation or post-processing.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationError reports a backend failure. Retryable reflects the
// transport-level classification only; retry policy belongs to the caller.
type GenerationError struct {
	Backend   Backend
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed on %s: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Registry maps backends to their configured generators.
type Registry struct {
	generators map[Backend]Generator
}

func NewRegistry() *Registry {
	return &Registry{generators: make(map[Backend]Generator)}
}

func (r *Registry) Register(backend Backend, g Generator) {
	r.generators[backend] = g
}

// Generate dispatches to the generator registered for backend and wraps
// any failure as a GenerationError.
func (r *Registry) Generate(ctx context.Context, backend Backend, prompt string) (string, error) {
	g, ok := r.generators[backend]
	if !ok {
		return "", &GenerationError{Backend: backend, Err: errors.New("no generator registered")}
	}
	text, err := g.Generate(ctx, prompt)
	if err != nil {
		var genErr *GenerationError
		if errors.As(err, &genErr) {
			return "", err
		}
		return "", &GenerationError{Backend: backend, Err: err}
	}
	return text, nil
}
