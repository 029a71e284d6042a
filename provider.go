package coursechat

import (
	"context"
	"fmt"
)

// Provider is a strategy pattern interface for LLM providers. Complete
// issues one model call and returns the full assembled response; the
// round loop in package generator needs complete responses, so there is
// no streaming surface.
type Provider interface {
	Complete(ctx context.Context, req Request) (AssistantMessage, error)
}

// Request carries model selection and generation parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model ID, provider-specific; empty = provider default
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSchema
	MaxTokens    int      // 0 = provider default
	Temperature  *float64 // nil = provider default
}

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 2 {
			return fmt.Errorf("temperature must be in [0, 2], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("messages must not be empty: %w", ErrValidation)
	}
	return nil
}
