package ai

import "context"

// Provider abstracts the chat-completion backend used for fallback
// extraction. Implementations must be safe for concurrent use.
type Provider interface {
	// ExtractData sends the prompt and returns the model's raw text reply.
	ExtractData(ctx context.Context, prompt string) (string, error)
}
