package llm

import (
	"fmt"
	"os"

	"github.com/datachat-ai/datachat/internal/config"
)

// NewProvider creates a single LLM provider for the given backend config.
func NewProvider(pc config.ProviderConfig) (Provider, error) {
	switch pc.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIProvider(apiKey, pc.Model), nil

	case config.ProviderAnthropic:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, pc.Model), nil

	case config.ProviderOllama:
		return NewOllamaProvider(os.Getenv("OLLAMA_HOST"), pc.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", pc.Provider)
	}
}

// NewClientFromConfig builds the fallback chat client from configuration.
// Providers whose credentials are missing are skipped; at least one backend
// must be constructible.
func NewClientFromConfig(cfg config.ChatConfig) (*Client, error) {
	var providers []Provider
	for _, pc := range cfg.Providers {
		p, err := NewProvider(pc)
		if err != nil {
			continue
		}
		if cfg.RequestsPerMinute > 0 {
			p = NewRateLimitedProvider(p, cfg.RequestsPerMinute)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no chat provider could be configured: check API keys for %d configured backends", len(cfg.Providers))
	}
	return NewClient(providers, cfg), nil
}
