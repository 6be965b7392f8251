package generation

import (
	"context"

	"github.com/kailas-cloud/carequery/internal/domain"
)

// Completer invokes the answer-generation provider.
type Completer interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error)
}

// BudgetChecker enforces and records a provider token budget.
type BudgetChecker interface {
	Check(ctx context.Context) error
	Record(tokens int64)
	RemainingDaily() int64
	RemainingMonthly() int64
	Provider() string
}
