// Package llm defines the completion capability the generators depend on.
package llm

import (
	"context"
	"errors"
)

var (
	ErrNoResponse    = errors.New("no response")
	ErrEmptyResponse = errors.New("empty response")
)

// Request is a single chat completion. A zero Temperature asks the backend
// for its most deterministic sampling.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
	JSON        bool
}

type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
