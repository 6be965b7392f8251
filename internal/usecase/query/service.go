package query

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/answer"
	"github.com/kailas-cloud/carequery/internal/domain/grounding"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/request"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
	"github.com/kailas-cloud/carequery/internal/logger"
	"github.com/kailas-cloud/carequery/internal/metrics"
)

const tracerName = "github.com/kailas-cloud/carequery/internal/usecase/query"

// Default stage timeouts.
const (
	DefaultRetrievalTimeout  = 2 * time.Second
	DefaultGenerationTimeout = 8 * time.Second
)

// Options configure the orchestrator.
type Options struct {
	RetrievalTimeout    time.Duration
	GenerationTimeout   time.Duration
	MaxCharsPerDocument int
	ExampleQueries      []string
}

// Service runs a question through classify, retrieve, assemble and generate.
// It holds no per-query state and is safe for concurrent use.
type Service struct {
	retriever Retriever
	generator Generator
	publisher ResultPublisher
	opts      Options
	tracer    trace.Tracer
	now       func() time.Time
	newID     func() string
}

// New creates the orchestrator. publisher may be nil.
func New(retriever Retriever, generator Generator, publisher ResultPublisher, opts Options) *Service {
	if opts.RetrievalTimeout <= 0 {
		opts.RetrievalTimeout = DefaultRetrievalTimeout
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = DefaultGenerationTimeout
	}
	if opts.MaxCharsPerDocument <= 0 {
		opts.MaxCharsPerDocument = grounding.DefaultMaxCharsPerDocument
	}
	if len(opts.ExampleQueries) == 0 {
		opts.ExampleQueries = DefaultExampleQueries
	}
	return &Service{
		retriever: retriever,
		generator: generator,
		publisher: publisher,
		opts:      opts,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// ExampleQueries returns the suggested questions.
func (s *Service) ExampleQueries() []string {
	return append([]string(nil), s.opts.ExampleQueries...)
}

// Execute answers req. On failure it returns a *domain.StageError naming the
// failed stage and no result.
func (s *Service) Execute(ctx context.Context, req request.Request) (answer.Result, error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "query.Execute", trace.WithAttributes(
		attribute.Int("query.top_k", req.TopK()),
	))
	defer span.End()

	log := logger.FromContext(ctx)
	stages := newStageTracker()

	fail := func(err error) (answer.Result, error) {
		failedAt := stages.Current()
		stageErr := stages.Fail(err)
		span.RecordError(stageErr)
		span.SetStatus(codes.Error, string(failedAt))
		metrics.QueriesTotal.WithLabelValues("failed", string(failedAt)).Inc()
		log.Warn("Query failed",
			zap.String("stage", string(failedAt)),
			zap.Duration("elapsed", s.now().Sub(start)),
			zap.Error(err),
		)
		return answer.Result{}, stageErr
	}

	// classify + build filter
	stages.Advance(domain.StageClassifying)
	f, err := s.classify(ctx, req)
	if err != nil {
		return fail(err)
	}

	// retrieve
	stages.Advance(domain.StageRetrieving)
	matches, err := s.retrieve(ctx, req, f)
	if err != nil {
		return fail(err)
	}

	// assemble
	stages.Advance(domain.StageAssembling)
	grounded := s.assemble(ctx, matches)

	// generate
	stages.Advance(domain.StageGenerating)
	text, err := s.generate(ctx, req.Question(), grounded)
	if err != nil {
		return fail(err)
	}

	stages.Advance(domain.StageComplete)
	completedAt := s.now()
	elapsed := completedAt.Sub(start)
	res := answer.New(s.newID(), req.Question(), text, grounded.Matches(), f.Domains(), elapsed, completedAt)

	s.recordCitations(ctx, text, grounded.Len())
	metrics.QueriesTotal.WithLabelValues("ok", "").Inc()
	metrics.QueryDuration.Observe(elapsed.Seconds())
	span.SetAttributes(
		attribute.String("query.id", res.ID()),
		attribute.Int("query.sources", grounded.Len()),
	)

	log.Info("Query answered",
		zap.String("query_id", res.ID()),
		zap.Strings("domains_searched", tagStrings(res.DomainsSearched())),
		zap.Int("sources", grounded.Len()),
		zap.Duration("elapsed", elapsed),
	)

	s.publish(ctx, res)
	return res, nil
}

func (s *Service) classify(ctx context.Context, req request.Request) (filter.Filter, error) {
	ctx, span := s.tracer.Start(ctx, "query.classify")
	defer span.End()
	defer observeStage(domain.StageClassifying, s.now())

	if err := ctx.Err(); err != nil {
		return filter.Filter{}, fmt.Errorf("classify: %w", err)
	}
	detected := taxonomy.Classify(req.Question())
	f := filter.Build(req.Explicit(), detected)

	span.SetAttributes(
		attribute.StringSlice("query.detected_domains", tagStrings(detected)),
		attribute.StringSlice("query.domains_searched", tagStrings(f.Domains())),
	)
	logger.FromContext(ctx).Debug("Question classified",
		zap.Strings("detected", tagStrings(detected)),
		zap.Strings("domains_searched", tagStrings(f.Domains())),
	)
	return f, nil
}

func (s *Service) retrieve(ctx context.Context, req request.Request, f filter.Filter) ([]result.Match, error) {
	ctx, span := s.tracer.Start(ctx, "query.retrieve")
	defer span.End()
	defer observeStage(domain.StageRetrieving, s.now())

	ctx, cancel := context.WithTimeout(ctx, s.opts.RetrievalTimeout)
	defer cancel()

	matches, err := s.retriever.Retrieve(ctx, req.Question(), f, req.TopK())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	span.SetAttributes(attribute.Int("query.matches", len(matches)))
	metrics.QueryMatches.Observe(float64(len(matches)))
	return matches, nil
}

func (s *Service) assemble(ctx context.Context, matches []result.Match) grounding.Context {
	_, span := s.tracer.Start(ctx, "query.assemble")
	defer span.End()
	defer observeStage(domain.StageAssembling, s.now())

	return grounding.Assemble(matches, s.opts.MaxCharsPerDocument)
}

func (s *Service) generate(ctx context.Context, question string, c grounding.Context) (string, error) {
	ctx, span := s.tracer.Start(ctx, "query.generate")
	defer span.End()
	defer observeStage(domain.StageGenerating, s.now())

	ctx, cancel := context.WithTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, question, c)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("generate: %w", err)
	}
	return text, nil
}

func (s *Service) recordCitations(ctx context.Context, text string, n int) {
	valid, invalid := grounding.CitedIndices(text, n)
	metrics.QueryCitationsTotal.WithLabelValues("true").Add(float64(len(valid)))
	metrics.QueryCitationsTotal.WithLabelValues("false").Add(float64(len(invalid)))
	if len(invalid) > 0 {
		logger.FromContext(ctx).Warn("Answer cites unknown documents",
			zap.Ints("invalid", invalid),
			zap.Int("documents", n),
		)
	}
}

func (s *Service) publish(ctx context.Context, res answer.Result) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, res); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues("error").Inc()
		logger.FromContext(ctx).Error("Publish query result failed",
			zap.String("query_id", res.ID()),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues("ok").Inc()
}

func observeStage(stage domain.Stage, start time.Time) {
	metrics.QueryStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
}

func tagStrings(tags []taxonomy.Tag) []string {
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// FormatElapsed renders elapsed seconds rounded to milliseconds, never below 0.001.
func FormatElapsed(d time.Duration) float64 {
	return max(math.Round(d.Seconds()*1000)/1000, 0.001)
}
