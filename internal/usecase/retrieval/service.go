package retrieval

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
)

// Service embeds a question and searches the corpus with a filter.
type Service struct {
	embed  Embedder
	search Searcher
}

// New creates a retrieval service.
func New(embed Embedder, search Searcher) *Service {
	return &Service{embed: embed, search: search}
}

// Retrieve returns up to k matches in the store's ranked order.
// Every failure wraps domain.ErrRetrievalFailed. No matches is not a failure.
func (s *Service) Retrieve(
	ctx context.Context, question string, f filter.Filter, k int,
) ([]result.Match, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: k must be at least 1, got %d", domain.ErrRetrievalFailed, k)
	}

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		return nil, retrievalError("embed question", err)
	}
	if len(emb.Embedding) == 0 {
		return nil, fmt.Errorf("%w: embed question: empty vector", domain.ErrRetrievalFailed)
	}
	if u := domain.UsageFromContext(ctx); u != nil {
		u.AddEmbeddingTokens(emb.TotalTokens)
	}

	matches, err := s.search.Search(ctx, emb.Embedding, f, k)
	if err != nil {
		return nil, retrievalError("vector search", err)
	}

	if len(matches) > k {
		return nil, fmt.Errorf("%w: store returned %d matches for k=%d",
			domain.ErrRetrievalFailed, len(matches), k)
	}
	for _, m := range matches {
		if !f.Matches(m.Document()) {
			return nil, fmt.Errorf("%w: %w: document %q",
				domain.ErrRetrievalFailed, domain.ErrFilterNotApplied, m.Document().ID())
		}
	}

	return matches, nil
}

func retrievalError(op string, err error) error {
	if errors.Is(err, domain.ErrRetrievalFailed) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrRetrievalFailed, op, err)
}
