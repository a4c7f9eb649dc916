package llm

import (
	"context"
	"sync"
	"time"
)

const refillPoll = 100 * time.Millisecond

// RateLimitedProvider throttles a chat backend to requests_per_minute from
// the chat config. Both the RAG answer path and summary generation share one
// limiter per provider, so a burst of questions cannot starve summaries.
type RateLimitedProvider struct {
	backend Provider
	rpm     int

	mu       sync.Mutex
	budget   int
	refilled time.Time
}

// NewRateLimitedProvider wraps backend with a token bucket that admits at
// most rpm completions per minute. The bucket starts full.
func NewRateLimitedProvider(backend Provider, rpm int) Provider {
	return &RateLimitedProvider{
		backend:  backend,
		rpm:      rpm,
		budget:   rpm,
		refilled: time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.backend.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.acquire(ctx); err != nil {
		return nil, err
	}
	return r.backend.Complete(ctx, req)
}

// acquire blocks until a request slot is available or ctx is done.
func (r *RateLimitedProvider) acquire(ctx context.Context) error {
	for {
		if r.tryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(refillPoll):
		}
	}
}

func (r *RateLimitedProvider) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	earned := int(now.Sub(r.refilled).Seconds() * float64(r.rpm) / 60.0)
	if earned > 0 {
		r.budget += earned
		if r.budget > r.rpm {
			r.budget = r.rpm
		}
		r.refilled = now
	}

	if r.budget == 0 {
		return false
	}
	r.budget--
	return true
}
