package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as check keys.
const (
	ComponentVectorStore = "vector_store"
	ComponentEmbedding   = "embedding"
	ComponentGeneration  = "generation"
)

// Report aggregates health check results. VectorCount is nil when the store
// cannot count or the count failed.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	VectorCount *int64
}

// Service coordinates health checks.
type Service struct {
	store      StorePinger
	counter    Counter
	embedding  ProviderChecker
	generation ProviderChecker
}

// New creates a Service. counter, embedding and generation may be nil.
func New(store StorePinger, counter Counter, embedding, generation ProviderChecker) *Service {
	return &Service{store: store, counter: counter, embedding: embedding, generation: generation}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, 3)

	run := func(name string, check func(context.Context) error) {
		if err := check(ctx); err != nil {
			log.Warn("Health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = CheckError
			return
		}
		checks[name] = CheckOK
	}

	run(ComponentVectorStore, s.store.Ping)
	if s.embedding != nil {
		run(ComponentEmbedding, s.embedding.HealthCheck)
	}
	if s.generation != nil {
		run(ComponentGeneration, s.generation.HealthCheck)
	}

	report := Report{Status: Healthy, Checks: checks}
	for _, v := range checks {
		if v == CheckError {
			report.Status = Degraded
			break
		}
	}

	if s.counter != nil && checks[ComponentVectorStore] == CheckOK {
		if n, err := s.counter.Count(ctx); err == nil {
			report.VectorCount = &n
		} else {
			log.Warn("Vector count failed", zap.Error(err))
		}
	}
	return report
}
