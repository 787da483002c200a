// Package ai defines the AI-provider collaborator used by ai nodes.
package ai

import "context"

// Request is one text-generation call.
type Request struct {
	Model        string
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
}

// Usage reports token consumption for billing and quota accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Provider turns a prompt into generated text. Failures (including
// timeouts) surface as errors the ai runner converts into fatal node
// results.
type Provider interface {
	Generate(ctx context.Context, req Request) (string, Usage, error)
}
