package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/datachat-ai/datachat/internal/config"
)

// Client sends chat requests through an ordered chain of providers.
// When a backend fails or times out, the next one in the chain is tried
// until one succeeds or the chain is exhausted.
type Client struct {
	providers []Provider
	cfg       config.ChatConfig
}

// NewClient creates a chat client over the given provider chain.
func NewClient(providers []Provider, cfg config.ChatConfig) *Client {
	return &Client{providers: providers, cfg: cfg}
}

// Providers returns the names of the configured backends, in fallback order.
func (c *Client) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Chat runs a system+user completion through the fallback chain.
// The returned ChatResult always has Success=false and Err set when every
// backend failed; the error return mirrors Err for convenience.
func (c *Client) Chat(ctx context.Context, systemPrompt, userPrompt string, opts ChatOptions) (*ChatResult, error) {
	if opts.Temperature == 0 {
		opts.Temperature = c.cfg.DefaultTemperature
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = c.cfg.DefaultMaxTokens
	}

	req := CompletionRequest{
		Model: opts.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userPrompt},
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	start := time.Now()
	var errs []error
	for _, p := range c.providers {
		callCtx := ctx
		var cancel context.CancelFunc
		if c.cfg.TimeoutSeconds > 0 {
			callCtx, cancel = context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutSeconds)*time.Second)
		}
		resp, err := p.Complete(callCtx, req)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			slog.Warn("chat provider failed, trying next", "provider", p.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		return &ChatResult{
			Content:        resp.Content,
			Provider:       p.Name(),
			Model:          resp.Model,
			TokensUsed:     resp.InputTokens + resp.OutputTokens,
			ProcessingTime: time.Since(start),
			Success:        true,
		}, nil
	}

	err := errors.Join(errs...)
	return &ChatResult{
		ProcessingTime: time.Since(start),
		Err:            err,
	}, fmt.Errorf("all chat providers failed: %w", err)
}
