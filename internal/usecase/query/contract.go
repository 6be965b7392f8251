package query

import (
	"context"

	"github.com/kailas-cloud/carequery/internal/domain/answer"
	"github.com/kailas-cloud/carequery/internal/domain/grounding"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
)

// Retriever fetches matches for a question under a filter.
type Retriever interface {
	Retrieve(ctx context.Context, question string, f filter.Filter, k int) ([]result.Match, error)
}

// Generator produces a grounded answer.
type Generator interface {
	Generate(ctx context.Context, question string, c grounding.Context) (string, error)
}

// ResultPublisher ships completed results to history consumers.
type ResultPublisher interface {
	Publish(ctx context.Context, r answer.Result) error
}
