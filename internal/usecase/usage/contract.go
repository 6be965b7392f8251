package usage

import domusage "github.com/kailas-cloud/carequery/internal/domain/usage"

// BudgetReader provides read-only access to a provider's token budget.
type BudgetReader interface {
	Provider() string
	Report(period domusage.Period) domusage.Report
}
