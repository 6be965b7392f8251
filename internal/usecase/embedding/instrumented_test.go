package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/metrics"
	"github.com/kailas-cloud/carequery/internal/usecase/budget"
)

// --- Mocks ---

type mockEmbedder struct {
	result     domain.EmbeddingResult
	err        error
	batchErr   error
	batchCalls int
	healthErr  error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	return m.result, m.err
}

func (m *mockEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	m.batchCalls++
	if m.batchErr != nil {
		return domain.BatchEmbeddingResult{}, m.batchErr
	}
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i := range texts {
		out.Embeddings[i] = m.result.Embedding
		out.TotalTokens += m.result.TotalTokens
		out.PromptTokens += m.result.PromptTokens
	}
	return out, nil
}

func (m *mockEmbedder) HealthCheck(_ context.Context) error { return m.healthErr }

// plainEmbedder implements only domain.Embedder.
type plainEmbedder struct {
	result domain.EmbeddingResult
	calls  int
}

func (m *plainEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, nil
}

func tracker(provider string, daily int64, action budget.Action) *budget.Tracker {
	return budget.NewTracker(provider, "", budget.Limits{Daily: daily, Action: action}, zap.NewNop())
}

// --- Tests ---

func TestEmbed_RecordsBudgetAndGauge(t *testing.T) {
	b := tracker("embedding:test-record", 1000, budget.ActionReject)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}, TotalTokens: 120}}
	p := NewInstrumentedEmbedder(inner, "openai", "text-embedding-3-small", b, zap.NewNop())

	res, err := p.Embed(context.Background(), "Is metformin covered?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 2 {
		t.Fatalf("expected 2 dimensions, got %d", len(res.Embedding))
	}
	if b.RemainingDaily() != 880 {
		t.Errorf("RemainingDaily() = %d, want 880", b.RemainingDaily())
	}
	gauge := testutil.ToFloat64(metrics.TokenBudgetRemaining.WithLabelValues("embedding:test-record", "daily"))
	if gauge != 880 {
		t.Errorf("gauge = %f, want 880", gauge)
	}
}

func TestEmbed_Errors(t *testing.T) {
	exhausted := tracker("embedding:exhausted", 10, budget.ActionReject)
	exhausted.Record(10)

	tests := []struct {
		name   string
		inner  *mockEmbedder
		budget BudgetChecker
		want   error
	}{
		{"provider error", &mockEmbedder{err: domain.ErrEmbeddingProviderError}, nil, domain.ErrEmbeddingProviderError},
		{"budget rejection", &mockEmbedder{}, exhausted, domain.ErrEmbeddingQuotaExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInstrumentedEmbedder(tt.inner, "openai", "m", tt.budget, zap.NewNop()).
				Embed(context.Background(), "q")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBatchEmbed_ChunksAndRecords(t *testing.T) {
	b := tracker("embedding:test-batch", 1_000_000, budget.ActionReject)
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 2}}
	p := NewInstrumentedEmbedder(inner, "openai", "m", b, zap.NewNop())

	texts := make([]string, MaxAPIBatchSize+3)
	res, err := p.BatchEmbed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(res.Embeddings))
	}
	if inner.batchCalls != 2 {
		t.Errorf("expected 2 chunked calls, got %d", inner.batchCalls)
	}
	if used := 1_000_000 - b.RemainingDaily(); used != int64(2*len(texts)) {
		t.Errorf("budget used %d, want %d", used, 2*len(texts))
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	res, err := NewInstrumentedEmbedder(&mockEmbedder{}, "openai", "m", nil, zap.NewNop()).
		BatchEmbed(context.Background(), nil)
	if err != nil || res.Embeddings != nil {
		t.Fatalf("expected empty result, got %v, %v", res.Embeddings, err)
	}
}

func TestBatchEmbed_Failures(t *testing.T) {
	exhausted := tracker("embedding:batch-exhausted", 1, budget.ActionReject)
	exhausted.Record(1)

	_, err := NewInstrumentedEmbedder(&mockEmbedder{}, "openai", "m", exhausted, zap.NewNop()).
		BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Errorf("expected quota error, got %v", err)
	}

	innerErr := errors.New("api error")
	_, err = NewInstrumentedEmbedder(&mockEmbedder{batchErr: innerErr}, "openai", "m", nil, zap.NewNop()).
		BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected inner error, got %v", err)
	}
}

func TestBatchEmbed_FallbackToSingle(t *testing.T) {
	inner := &plainEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}, TotalTokens: 5}}
	res, err := NewInstrumentedEmbedder(inner, "openai", "m", nil, zap.NewNop()).
		BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 || res.TotalTokens != 10 {
		t.Errorf("expected 2 calls and 10 tokens, got %d and %d", inner.calls, res.TotalTokens)
	}
}

func TestHealthCheck(t *testing.T) {
	down := errors.New("401")
	if err := NewInstrumentedEmbedder(&mockEmbedder{healthErr: down}, "openai", "m", nil, zap.NewNop()).
		HealthCheck(context.Background()); !errors.Is(err, down) {
		t.Errorf("expected health error, got %v", err)
	}
	if err := NewInstrumentedEmbedder(&plainEmbedder{}, "openai", "m", nil, zap.NewNop()).
		HealthCheck(context.Background()); err != nil {
		t.Errorf("embedder without health check must pass, got %v", err)
	}
}
