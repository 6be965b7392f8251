package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/usage"
)

// Action defines behavior when a token budget is exceeded.
type Action string

const (
	// ActionWarn logs a warning but allows the request.
	ActionWarn Action = "warn"
	// ActionReject blocks the request with domain.ErrEmbeddingQuotaExceeded.
	ActionReject Action = "reject"
)

// Store persists budget counters. IncrBy may be called repeatedly for the same key.
type Store interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Limits configures a tracker. Zero limits are unlimited.
type Limits struct {
	Daily   int64
	Monthly int64
	Action  Action
}

// Tracker is an in-memory token budget for one provider with optional write-behind persistence.
// Check never leaves the process; Record updates memory first, then the store.
type Tracker struct {
	mu             sync.Mutex
	provider       string
	keyPrefix      string
	limits         Limits
	dailyUsed      int64
	monthlyUsed    int64
	lastDayReset   time.Time
	lastMonthReset time.Time
	store          Store
	now            func() time.Time
	logger         *zap.Logger
}

// NewTracker creates a tracker. provider distinguishes counters, e.g. "embedding:openai".
func NewTracker(provider, keyPrefix string, limits Limits, logger *zap.Logger) *Tracker {
	if limits.Action == "" {
		limits.Action = ActionWarn
	}
	t := &Tracker{
		provider:  provider,
		keyPrefix: keyPrefix,
		limits:    limits,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
	now := t.now()
	t.lastDayReset = truncateToDay(now)
	t.lastMonthReset = truncateToMonth(now)
	return t
}

// WithStore attaches persistence and loads the current period counters.
func (t *Tracker) WithStore(ctx context.Context, store Store) *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.store = store
	now := t.now()

	if val, err := store.Get(ctx, t.dailyKey(now)); err == nil {
		t.dailyUsed = val
	} else {
		t.logger.Warn("Failed to load daily budget", zap.String("provider", t.provider), zap.Error(err))
	}
	if val, err := store.Get(ctx, t.monthlyKey(now)); err == nil {
		t.monthlyUsed = val
	} else {
		t.logger.Warn("Failed to load monthly budget", zap.String("provider", t.provider), zap.Error(err))
	}

	t.logger.Info("Budget loaded from store",
		zap.String("provider", t.provider),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("monthly_used", t.monthlyUsed),
	)
	return t
}

// Provider returns the provider key.
func (t *Tracker) Provider() string { return t.provider }

// Check verifies the budget allows a new request.
func (t *Tracker) Check(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.resetIfNeeded()

	dailyExceeded := t.limits.Daily > 0 && t.dailyUsed >= t.limits.Daily
	monthlyExceeded := t.limits.Monthly > 0 && t.monthlyUsed >= t.limits.Monthly
	if !dailyExceeded && !monthlyExceeded {
		return nil
	}

	if t.limits.Action == ActionReject {
		return fmt.Errorf("%s: %w", t.provider, domain.ErrEmbeddingQuotaExceeded)
	}

	t.logger.Warn("Token budget exceeded",
		zap.String("provider", t.provider),
		zap.Int64("daily_used", t.dailyUsed),
		zap.Int64("daily_limit", t.limits.Daily),
		zap.Int64("monthly_used", t.monthlyUsed),
		zap.Int64("monthly_limit", t.limits.Monthly),
	)
	return nil
}

// Record adds consumed tokens, then persists them when a store is attached.
func (t *Tracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}

	t.mu.Lock()
	t.resetIfNeeded()
	t.dailyUsed += tokens
	t.monthlyUsed += tokens
	store := t.store
	now := t.now()
	t.mu.Unlock()

	if store == nil {
		return
	}

	// Detached from the request context so a cancelled query still persists usage.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for _, key := range []string{t.dailyKey(now), t.monthlyKey(now)} {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			t.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (t *Tracker) RemainingDaily() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return remaining(t.limits.Daily, t.dailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (t *Tracker) RemainingMonthly() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()
	return remaining(t.limits.Monthly, t.monthlyUsed)
}

// Report returns a usage snapshot for the period.
func (t *Tracker) Report(period usage.Period) usage.Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetIfNeeded()

	if period == usage.PeriodMonth {
		start := t.lastMonthReset
		return usage.NewReport(t.provider, period,
			start.UnixMilli(), start.AddDate(0, 1, 0).UnixMilli(), t.limits.Monthly, t.monthlyUsed)
	}
	start := t.lastDayReset
	return usage.NewReport(t.provider, usage.PeriodDay,
		start.UnixMilli(), start.Add(24*time.Hour).UnixMilli(), t.limits.Daily, t.dailyUsed)
}

func (t *Tracker) dailyKey(now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", t.keyPrefix, t.provider, now.Format("2006-01-02"))
}

func (t *Tracker) monthlyKey(now time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", t.keyPrefix, t.provider, now.Format("2006-01"))
}

// resetIfNeeded zeroes counters when the day or month rolls over.
func (t *Tracker) resetIfNeeded() {
	now := t.now()
	if today := truncateToDay(now); today.After(t.lastDayReset) {
		t.dailyUsed = 0
		t.lastDayReset = today
	}
	if month := truncateToMonth(now); month.After(t.lastMonthReset) {
		t.monthlyUsed = 0
		t.lastMonthReset = month
	}
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
