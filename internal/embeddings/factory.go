package embeddings

import (
	"fmt"
	"os"

	"github.com/datachat-ai/datachat/internal/config"
)

const queryCacheCapacity = 512

// NewFromConfig builds the embedder stack from configuration: the provider
// backend, wrapped to the canonical dimension, wrapped with an LRU cache.
func NewFromConfig(cfg config.EmbeddingConfig) (Embedder, error) {
	var base Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		base = NewOpenAIEmbedder(apiKey, OpenAIModel(cfg.Model))
	case config.ProviderOllama:
		base = NewOllamaEmbedder(cfg.Model, cfg.Dimension, os.Getenv("OLLAMA_HOST"))
	default:
		return nil, fmt.Errorf("provider %q has no native embeddings: use openai or ollama", cfg.Provider)
	}

	cached, err := WithCache(Canonical(base, cfg.Dimension), queryCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("building embedding cache: %w", err)
	}
	return cached, nil
}
