package usage

import (
	"context"

	domusage "github.com/kailas-cloud/carequery/internal/domain/usage"
)

// Service handles usage reporting.
type Service struct {
	readers []BudgetReader
}

// New creates a Service over the given budgets. Nil readers are ignored.
func New(readers ...BudgetReader) *Service {
	s := &Service{}
	for _, r := range readers {
		if r != nil {
			s.readers = append(s.readers, r)
		}
	}
	return s
}

// GetReports returns one report per tracked provider, in registration order.
func (s *Service) GetReports(_ context.Context, period domusage.Period) []domusage.Report {
	out := make([]domusage.Report, 0, len(s.readers))
	for _, r := range s.readers {
		out = append(out, r.Report(period))
	}
	return out
}
