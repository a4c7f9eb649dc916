package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .datachat.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to datachat! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Primary chat provider.
	providerPrompt := promptui.Select{
		Label: "Select primary LLM provider",
		Items: []string{"openai", "anthropic", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}

	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: defaultModelFor(ProviderType(providerStr)),
	}
	model, err := modelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("model prompt: %w", err)
	}

	// The selected provider leads the fallback chain; the remaining
	// defaults stay behind it.
	chain := []ProviderConfig{{Provider: ProviderType(providerStr), Model: model}}
	for _, p := range cfg.Chat.Providers {
		if p.Provider != ProviderType(providerStr) {
			chain = append(chain, p)
		}
	}
	cfg.Chat.Providers = chain

	// 2. Embedding provider.
	embPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{"openai", "ollama"},
	}
	_, embStr, err := embPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("embedding selection: %w", err)
	}
	cfg.Embedding.Provider = ProviderType(embStr)
	if cfg.Embedding.Provider == ProviderOllama {
		cfg.Embedding.Model = "nomic-embed-text"
		cfg.Embedding.Dimension = 768
	}

	// 3. Ingestion block size.
	sizePrompt := promptui.Prompt{
		Label:   "Rows per ingestion block",
		Default: strconv.Itoa(cfg.Ingestion.ChunkSize),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	sizeStr, err := sizePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("chunk size prompt: %w", err)
	}
	cfg.Ingestion.ChunkSize, _ = strconv.Atoi(sizeStr)
	if cfg.Ingestion.ChunkOverlap >= cfg.Ingestion.ChunkSize {
		cfg.Ingestion.ChunkOverlap = cfg.Ingestion.ChunkSize / 10
	}

	// 4. Data directory.
	dirPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	dir, err := dirPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir prompt: %w", err)
	}
	cfg.DataDir = dir
	cfg.OutputDir = dir + "/charts"

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(".datachat.yml"); err != nil {
		return nil, err
	}
	fmt.Println("\nConfiguration saved to .datachat.yml")

	return cfg, nil
}

func defaultModelFor(p ProviderType) string {
	switch p {
	case ProviderAnthropic:
		return "claude-haiku-4-5-20251001"
	case ProviderOllama:
		return "llama3"
	default:
		return "gpt-4o-mini"
	}
}
