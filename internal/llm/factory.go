package llm

import (
	"context"
	"fmt"
	"io"
)

type Config struct {
	Provider  string
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
}

// NewProvider builds the bare provider named by cfg.Provider. Callers wrap it
// with WithInstrumentation and close it with CloseProvider on shutdown.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch cfg.Provider {
	case "gemini":
		p, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		p, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		p, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return p, nil
}

// CloseProvider releases provider resources when it holds any.
func CloseProvider(p Provider) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
