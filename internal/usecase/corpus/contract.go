package corpus

import (
	"context"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
)

// Embedder vectorizes document texts in bulk.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Writer persists documents with their vectors.
type Writer interface {
	EnsureIndex(ctx context.Context, vc domain.VectorConfig) error
	Upsert(ctx context.Context, doc document.Document, vector []float32) error
}

// Counter reports the number of indexed documents.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}
