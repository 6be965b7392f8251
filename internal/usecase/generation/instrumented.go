package generation

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/metrics"
)

// InstrumentedCompleter wraps a Completer with budget enforcement and logging.
type InstrumentedCompleter struct {
	inner    Completer
	provider string
	model    string
	budget   BudgetChecker
	logger   *zap.Logger
}

// NewInstrumentedCompleter wraps inner. budget may be nil (unlimited).
func NewInstrumentedCompleter(
	inner Completer, provider, model string, budget BudgetChecker, logger *zap.Logger,
) *InstrumentedCompleter {
	return &InstrumentedCompleter{inner: inner, provider: provider, model: model, budget: budget, logger: logger}
}

// Complete checks the budget, delegates, and records token usage.
func (c *InstrumentedCompleter) Complete(
	ctx context.Context, req domain.CompletionRequest,
) (domain.CompletionResult, error) {
	if c.budget != nil {
		if err := c.budget.Check(ctx); err != nil {
			c.logger.Error("Generation budget exceeded",
				zap.String("provider", c.provider),
				zap.String("model", c.model),
				zap.Error(err),
			)
			return domain.CompletionResult{}, fmt.Errorf("budget check: %w", err)
		}
	}

	start := time.Now()
	res, err := c.inner.Complete(ctx, req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("Completion request failed",
			zap.String("provider", c.provider),
			zap.String("model", c.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return domain.CompletionResult{}, fmt.Errorf("complete: %w", err)
	}

	if c.budget != nil && res.TotalTokens > 0 {
		c.budget.Record(int64(res.TotalTokens))
		metrics.TokenBudgetRemaining.WithLabelValues(c.budget.Provider(), "daily").
			Set(float64(c.budget.RemainingDaily()))
		metrics.TokenBudgetRemaining.WithLabelValues(c.budget.Provider(), "monthly").
			Set(float64(c.budget.RemainingMonthly()))
	}

	c.logger.Debug("Completion request completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Float32("temperature", req.Temperature),
		zap.Int("prompt_tokens", res.PromptTokens),
		zap.Int("completion_tokens", res.CompletionTokens),
	)
	return res, nil
}

// HealthCheck delegates to the inner completer when it supports health checks.
func (c *InstrumentedCompleter) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("generation health: %w", err)
		}
	}
	return nil
}
