package retrieval

import (
	"context"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
)

// Embedder vectorizes the question.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Searcher runs a filtered nearest-neighbour search. Implementations must apply
// every filter condition or return an error; they return at most k matches in
// descending score order.
type Searcher interface {
	Search(ctx context.Context, vector []float32, f filter.Filter, k int) ([]result.Match, error)
}
