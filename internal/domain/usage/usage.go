package usage

// Period is the aggregation granularity.
type Period string

// Aggregation period constants.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
)

// ParsePeriod parses a period, defaulting to day.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "", PeriodDay:
		return PeriodDay, true
	case PeriodMonth:
		return PeriodMonth, true
	}
	return "", false
}

// Report is the token usage of one provider over a period.
type Report struct {
	provider    string
	period      Period
	periodStart int64 // unix millis
	periodEnd   int64 // unix millis
	limit       int64 // 0 = unlimited
	used        int64
}

// NewReport creates a usage report.
func NewReport(provider string, period Period, start, end, limit, used int64) Report {
	return Report{
		provider:    provider,
		period:      period,
		periodStart: start,
		periodEnd:   end,
		limit:       limit,
		used:        used,
	}
}

// Provider returns the provider key (e.g. "embedding:openai").
func (r Report) Provider() string { return r.provider }

// Period returns the aggregation granularity.
func (r Report) Period() Period { return r.period }

// PeriodStart returns the period start (unix millis).
func (r Report) PeriodStart() int64 { return r.periodStart }

// PeriodEnd returns the period end (unix millis); budgets reset at this instant.
func (r Report) PeriodEnd() int64 { return r.periodEnd }

// Limit returns the token cap, 0 when unlimited.
func (r Report) Limit() int64 { return r.limit }

// Used returns the tokens consumed.
func (r Report) Used() int64 { return r.used }

// Remaining returns tokens left, -1 when unlimited.
func (r Report) Remaining() int64 {
	if r.limit == 0 {
		return -1
	}
	return max(r.limit-r.used, 0)
}

// Exhausted reports whether a limited budget is spent.
func (r Report) Exhausted() bool { return r.limit > 0 && r.used >= r.limit }
