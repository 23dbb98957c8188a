// Package llm is the boundary to generative model providers. A Provider makes
// exactly one model call; Client layers retries, concurrency slots and
// structured-output validation on top.
package llm

import "context"

type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	// Name identifies the backend in logs and metrics, e.g. "gemini".
	Name() string
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System string
	Prompt string
	// Schema, when set, asks the provider for JSON output through its native
	// structured output mechanism. Conformance is checked by Client, not here.
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Schema is a JSON Schema document plus the name providers require for it.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

type Response struct {
	// Content is the raw model text. For schema requests it should be JSON,
	// possibly wrapped in a markdown code fence.
	Content    string
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// resolveModel maps a short alias to a provider model id; unknown names pass through.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
