// Package provider defines the generation provider port (interface).
// The orchestrator never assumes a specific LLM backend; any model
// identifier may be routed to a different provider behind the proxy.
package provider

import (
	"context"
	"errors"
)

// Request is a single generation call. The caller is responsible for
// attaching a deadline to ctx; providers must honor it.
type Request struct {
	Prompt    string
	Model     string
	MaxTokens int
}

// Result carries the generated text plus the cost side channel.
type Result struct {
	Text       string
	TokensUsed int
	CostUSD    float64
}

// Generator is the port interface for text generation.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

// TransientError marks a provider failure that is safe to retry within the
// same phase: timeouts, rate limits, 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient provider error: " + e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil when err is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is safe to retry in-phase.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
