package providers

import (
	"context"
	"errors"
)

// ErrTextGenerationUnavailable is returned when a provider refuses work, for
// example while its circuit breaker is open or credentials were rejected.
var ErrTextGenerationUnavailable = errors.New("text generation provider unavailable")

// TextGenerationRequest is a single structured-output prompt.
type TextGenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float32
	MaxTokens    int
}

// TextGenerationProvider defines a generative text service that answers with JSON.
type TextGenerationProvider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// Generate returns the raw model output for the request
	Generate(ctx context.Context, req TextGenerationRequest) (string, error)
}
