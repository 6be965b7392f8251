package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/config"
	dbredis "github.com/kailas-cloud/carequery/internal/db/redis"
	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/metrics"
	budgetrepo "github.com/kailas-cloud/carequery/internal/repository/budget"
	"github.com/kailas-cloud/carequery/internal/repository/embcache"
	openaiprov "github.com/kailas-cloud/carequery/internal/transport/openai"
	"github.com/kailas-cloud/carequery/internal/usecase/budget"
	embeddinguc "github.com/kailas-cloud/carequery/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/carequery/internal/usecase/generation"
)

// Budget counter retention: one spare day and one spare month.
const (
	budgetDailyTTL   = 48 * time.Hour
	budgetMonthlyTTL = 62 * 24 * time.Hour
)

// Embedders holds the two embedding chains built over one provider client.
type Embedders struct {
	// Query embeds questions: provider -> cache -> budget -> instruction prefix.
	Query domain.Embedder
	// Documents embeds corpus text in batches: provider -> budget.
	Documents *embeddinguc.InstrumentedEmbedder
	// Budget is nil when no limit is configured.
	Budget *budget.Tracker
}

// NewEmbedders assembles the embedding decorator chains. kv may be nil.
func NewEmbedders(ctx context.Context, cfg config.Config, kv *dbredis.Store, logger *zap.Logger) Embedders {
	vec := cfg.Embedding.Vectorizer
	prov := cfg.Embedding.Providers[vec.Provider]

	base := openaiprov.NewEmbedder(&openaiprov.Config{
		APIKey:     prov.APIKey,
		BaseURL:    prov.BaseURL,
		Model:      vec.Model,
		Dimensions: vec.Dimensions,
		Provider:   vec.Provider,
		Logger:     logger,
	})

	tracker := newTracker(ctx, vec.Provider, cfg.Database.KeyPrefix, prov.Budget, kv, logger)
	// A typed nil pointer must not reach the BudgetChecker interface.
	var checker embeddinguc.BudgetChecker
	if tracker != nil {
		checker = tracker
	}

	var cached domain.Embedder = base
	if kv != nil {
		cached = embcache.New(base, kv, embcache.Options{
			KeyPrefix: cfg.Database.KeyPrefix,
			Model:     vec.Model,
			TTL:       time.Duration(cfg.Embedding.CacheTTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, logger)
	}

	var query domain.Embedder = embeddinguc.NewInstrumentedEmbedder(cached, vec.Provider, vec.Model, checker, logger)
	if vec.QueryInstruction != "" {
		query = domain.NewInstructionEmbedder(query, vec.QueryInstruction)
	}

	return Embedders{
		Query:     query,
		Documents: embeddinguc.NewInstrumentedEmbedder(base, vec.Provider, vec.Model, checker, logger),
		Budget:    tracker,
	}
}

// Completer is the instrumented generation provider and its budget (nil when unlimited).
type Completer struct {
	*generationuc.InstrumentedCompleter
	Budget *budget.Tracker
}

// NewCompleter assembles the generation chain: provider -> budget.
func NewCompleter(ctx context.Context, cfg config.Config, kv *dbredis.Store, logger *zap.Logger) Completer {
	gen := cfg.Generation
	prov := cfg.Embedding.Providers[gen.Provider]

	base := openaiprov.NewCompleter(&openaiprov.Config{
		APIKey:   prov.APIKey,
		BaseURL:  prov.BaseURL,
		Model:    gen.Model,
		Provider: gen.Provider,
		Logger:   logger,
	})

	// Generation tokens are budgeted apart from embedding tokens.
	tracker := newTracker(ctx, gen.Provider+"-generation", cfg.Database.KeyPrefix, gen.Budget, kv, logger)
	var checker generationuc.BudgetChecker
	if tracker != nil {
		checker = tracker
	}

	return Completer{
		InstrumentedCompleter: generationuc.NewInstrumentedCompleter(base, gen.Provider, gen.Model, checker, logger),
		Budget:                tracker,
	}
}

func newTracker(
	ctx context.Context, provider, keyPrefix string, bc config.BudgetConfig,
	kv *dbredis.Store, logger *zap.Logger,
) *budget.Tracker {
	if !bc.Enabled() {
		return nil
	}
	action := budget.ActionWarn
	if bc.Action == string(budget.ActionReject) {
		action = budget.ActionReject
	}
	t := budget.NewTracker(provider, keyPrefix, budget.Limits{
		Daily:   bc.DailyTokenLimit,
		Monthly: bc.MonthlyTokenLimit,
		Action:  action,
	}, logger)
	if kv != nil {
		t.WithStore(ctx, budgetrepo.New(kv, budgetDailyTTL, budgetMonthlyTTL))
	}
	return t
}
