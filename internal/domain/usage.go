package domain

import (
	"context"
	"sync"
)

type usageKey struct{}

// Usage collects provider token usage for a single query.
// The handler puts a pointer into the context, decorators add to it,
// and the handler reads it back for response headers.
type Usage struct {
	mu               sync.Mutex
	embeddingTokens  int
	generationTokens int
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records tokens spent on vectorization.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.embeddingTokens += n
	u.mu.Unlock()
}

// AddGenerationTokens records tokens spent on answer generation.
func (u *Usage) AddGenerationTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.generationTokens += n
	u.mu.Unlock()
}

// Tokens returns embedding and generation token totals.
func (u *Usage) Tokens() (embedding, generation int) {
	if u == nil {
		return 0, 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.embeddingTokens, u.generationTokens
}
