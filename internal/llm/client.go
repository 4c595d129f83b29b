// Package llm provides the narrow contract to the language-model inference
// service: ordered role-tagged turns in, raw text out. No schema conformance
// is guaranteed by the service; callers must parse defensively.
package llm

import "context"

// Message is one role-tagged turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tune a single completion request.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Health describes model availability on the inference service.
type Health struct {
	Status          string
	ModelAvailable  bool
	AvailableModels []string
}

// Client is the inference-service contract. Chat blocks until the model
// answers, the context is cancelled, or the client's timeout fires.
type Client interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	Health(ctx context.Context) (*Health, error)
	ModelName() string
}
