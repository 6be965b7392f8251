package domain

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	texts  []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.texts = append(s.texts, text)
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batch    BatchEmbeddingResult
	batchErr error
	batchIn  []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchIn = texts
	return s.batch, s.batchErr
}

// --- Tests ---

func TestInstructionEmbedder_Embed(t *testing.T) {
	tests := []struct {
		name        string
		instruction string
		want        string
	}{
		{"with instruction", "query: ", "query: is metformin covered"},
		{"empty instruction", "", "is metformin covered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
			res, err := NewInstructionEmbedder(inner, tt.instruction).
				Embed(context.Background(), "is metformin covered")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if inner.texts[0] != tt.want {
				t.Errorf("inner got %q, want %q", inner.texts[0], tt.want)
			}
			if len(res.Embedding) != 2 {
				t.Errorf("expected 2-element vector, got %d", len(res.Embedding))
			}
		})
	}
}

func TestInstructionEmbedder_EmbedError(t *testing.T) {
	providerErr := errors.New("provider down")
	_, err := NewInstructionEmbedder(&stubEmbedder{err: providerErr}, "q: ").
		Embed(context.Background(), "x")
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestBatchFallback(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}, PromptTokens: 4, TotalTokens: 4}}
	res, err := BatchFallback(context.Background(), inner, []string{"copay", "deductible", "tier"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 || res.TotalTokens != 12 || res.PromptTokens != 12 {
		t.Errorf("unexpected aggregate: %d embeddings, %d/%d tokens",
			len(res.Embeddings), res.PromptTokens, res.TotalTokens)
	}

	empty, err := BatchFallback(context.Background(), inner, nil)
	if err != nil || len(empty.Embeddings) != 0 {
		t.Errorf("expected empty result for nil input, got %d (%v)", len(empty.Embeddings), err)
	}
}

func TestInstructionEmbedder_BatchEmbed(t *testing.T) {
	t.Run("native batch", func(t *testing.T) {
		inner := &stubBatchEmbedder{batch: BatchEmbeddingResult{Embeddings: [][]float32{{1}, {2}}}}
		res, err := NewInstructionEmbedder(inner, "doc: ").
			BatchEmbed(context.Background(), []string{"a", "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(res.Embeddings) != 2 {
			t.Fatalf("expected 2 embeddings, got %d", len(res.Embeddings))
		}
		if inner.batchIn[0] != "doc: a" || inner.batchIn[1] != "doc: b" {
			t.Errorf("expected prefixed texts, got %v", inner.batchIn)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}, TotalTokens: 3}}
		res, err := NewInstructionEmbedder(inner, "doc: ").
			BatchEmbed(context.Background(), []string{"a", "b"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.TotalTokens != 6 {
			t.Errorf("expected 6 tokens, got %d", res.TotalTokens)
		}
	})

	t.Run("error", func(t *testing.T) {
		batchErr := errors.New("batch fail")
		_, err := NewInstructionEmbedder(&stubBatchEmbedder{batchErr: batchErr}, "x: ").
			BatchEmbed(context.Background(), []string{"a"})
		if !errors.Is(err, batchErr) {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}
