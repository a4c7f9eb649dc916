package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-ai/datachat/internal/config"
)

// fakeProvider returns a canned response or error.
type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &CompletionResponse{
		Content:      f.reply,
		Model:        f.name + "-model",
		InputTokens:  10,
		OutputTokens: 5,
	}, nil
}

func chatConfig() config.ChatConfig {
	return config.ChatConfig{
		DefaultTemperature: 0.2,
		DefaultMaxTokens:   512,
	}
}

func TestClientFirstProviderWins(t *testing.T) {
	first := &fakeProvider{name: "first", reply: "ok"}
	second := &fakeProvider{name: "second", reply: "unused"}
	client := NewClient([]Provider{first, second}, chatConfig())

	res, err := client.Chat(context.Background(), "sys", "user", ChatOptions{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ok", res.Content)
	assert.Equal(t, "first", res.Provider)
	assert.Equal(t, 15, res.TokensUsed)
	assert.Zero(t, second.calls)
}

func TestClientFallsBackOnFailure(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("rate limited")}
	second := &fakeProvider{name: "second", reply: "fallback answer"}
	client := NewClient([]Provider{first, second}, chatConfig())

	res, err := client.Chat(context.Background(), "sys", "user", ChatOptions{})
	require.NoError(t, err)
	assert.Equal(t, "fallback answer", res.Content)
	assert.Equal(t, "second", res.Provider)
	assert.Equal(t, 1, first.calls)
}

func TestClientAllProvidersFail(t *testing.T) {
	first := &fakeProvider{name: "first", err: errors.New("down")}
	second := &fakeProvider{name: "second", err: errors.New("also down")}
	client := NewClient([]Provider{first, second}, chatConfig())

	res, err := client.Chat(context.Background(), "sys", "user", ChatOptions{})
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
}

func TestClientDefaultsApplied(t *testing.T) {
	var captured CompletionRequest
	capture := providerFunc(func(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
		captured = req
		return &CompletionResponse{Content: "x"}, nil
	})
	client := NewClient([]Provider{capture}, chatConfig())

	_, err := client.Chat(context.Background(), "sys", "user", ChatOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0.2, captured.Temperature, 1e-9)
	assert.Equal(t, 512, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, RoleSystem, captured.Messages[0].Role)
}

type providerFunc func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

func (f providerFunc) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return f(ctx, req)
}

func (providerFunc) Name() string { return "func" }

func TestRateLimiterAllowsWithinBudget(t *testing.T) {
	inner := &fakeProvider{name: "inner", reply: "ok"}
	limited := NewRateLimitedProvider(inner, 600)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		_, err := limited.Complete(ctx, CompletionRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 5, inner.calls)
}

func TestRateLimiterHonorsCancellation(t *testing.T) {
	inner := &fakeProvider{name: "inner", reply: "ok"}
	limited := NewRateLimitedProvider(inner, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	// Exhaust the single token, then expect the second call to block and
	// surface the context error.
	_, err := limited.Complete(ctx, CompletionRequest{})
	require.NoError(t, err)
	_, err = limited.Complete(ctx, CompletionRequest{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
