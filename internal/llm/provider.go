package llm

import "context"

// Provider is one chat backend in the configured fallback chain. The Client
// walks providers in order and takes the first successful completion.
type Provider interface {
	// Complete sends one chat completion and returns the answer text.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name identifies the backend ("openai", "anthropic", "ollama") for
	// logging and response metadata.
	Name() string
}
