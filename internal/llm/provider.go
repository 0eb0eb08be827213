// Package llm talks to hosted language models through a single generic HTTP
// provider shape and drives retries, fallback, and streaming through the
// Orchestrator.
package llm

import (
	"context"
)

// Provider is the interface for LLM providers
type Provider interface {
	// Name returns the provider name (e.g., "deepseek", "gemini")
	Name() string

	// Available returns true if the provider is configured and ready
	Available() bool

	// Generate sends a prompt and returns the complete response
	Generate(ctx context.Context, req Request) (Response, error)
}

// Request is a prompt request to an LLM provider. Sampling fields at their
// zero value are omitted from the wire request so the provider default wins.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
	TopP         float64
	TopK         int
}

// Response is the LLM provider's response
type Response struct {
	Content     string
	Model       string
	RawResponse string // The raw API response body for logging/debugging
}

// StreamChunk is an incremental piece of a streaming response
type StreamChunk struct {
	Content string // Incremental content (append to previous)
	Done    bool   // True when stream is complete
	Error   error  // Non-nil if stream encountered an error
	Model   string // Model name (set on first/last chunk)
}

// StreamingProvider extends Provider with streaming support
type StreamingProvider interface {
	Provider
	// GenerateStream returns a channel that yields content chunks
	// The channel is closed when generation is complete
	// Callers should check chunk.Done and chunk.Error
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error)
}
