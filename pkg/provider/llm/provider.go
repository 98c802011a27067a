// Package llm defines the Provider interface for Large Language Model
// backends used by the answering core's chat-completion step.
//
// An LLM provider wraps a remote model API (OpenAI, OpenRouter, ...) and
// exposes a uniform blocking chat-completion call. Provider-specific
// parameter shaping (reasoning-family models that reject `temperature` and
// require `max_completion_tokens`, for example) is the provider's own
// responsibility; callers always see the same request/response shape.
//
// Implementations must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
)

// ErrProviderNotConfigured is returned by a provider constructor when
// required credentials are missing.
var ErrProviderNotConfigured = errors.New("llm: provider not configured")

// ErrEmptyResponse is returned when a provider call succeeds but returns no
// completion content.
var ErrEmptyResponse = errors.New("llm: empty completion response")

// ChatMessage is one turn of conversation passed to a provider.
type ChatMessage struct {
	// Role is "user" or "assistant".
	Role    string
	Content string
}

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Messages must be non-empty.
type CompletionRequest struct {
	// SystemPrompt is injected ahead of Messages as the highest-priority
	// instruction.
	SystemPrompt string

	// Messages is the ordered conversation history; the last entry is
	// typically the current user turn.
	Messages []ChatMessage

	// Temperature controls output randomness. Ignored by providers whose
	// model family does not accept it (reasoning-family OpenAI models).
	Temperature float64

	// MaxTokens caps completion length. Zero selects the provider default.
	MaxTokens int
}

// CompletionResponse is returned by a successful Complete call.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Provider is the abstraction over any LLM chat-completion backend.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// ModelID returns the provider-specific model identifier in use.
	ModelID() string
}
