package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/bootstrap"
	"github.com/kailas-cloud/carequery/internal/config"
	"github.com/kailas-cloud/carequery/internal/domain/batch"
	"github.com/kailas-cloud/carequery/internal/events"
	logpkg "github.com/kailas-cloud/carequery/internal/logger"
	"github.com/kailas-cloud/carequery/internal/metrics"
	chiTransport "github.com/kailas-cloud/carequery/internal/transport/chi"
	healthuc "github.com/kailas-cloud/carequery/internal/usecase/health"
	"github.com/kailas-cloud/carequery/internal/usecase/query"
	usageuc "github.com/kailas-cloud/carequery/internal/usecase/usage"
	"github.com/kailas-cloud/carequery/internal/version"
)

func main() {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting carequery API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("embedding_model", cfg.Embedding.Vectorizer.Model),
		zap.String("generation_model", cfg.Generation.Model),
	)

	ctx := context.Background()

	shutdownTracing := bootstrap.SetupTracing(cfg.Tracing)

	// Register metrics explicitly (no init())
	metrics.RegisterAll()

	backend, err := bootstrap.OpenBackend(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open vector store", zap.Error(err))
	}
	defer backend.Close()

	embedders := bootstrap.NewEmbedders(ctx, cfg, backend.KV, logger)
	completer := bootstrap.NewCompleter(ctx, cfg, backend.KV, logger)

	if err := backend.Vectors.EnsureIndex(ctx, bootstrap.VectorConfig(cfg)); err != nil {
		logger.Fatal("Failed to prepare vector index", zap.Error(err))
	}
	if cfg.Database.Driver == config.DriverMemory {
		preloadCorpus(ctx, cfg, backend, embedders, logger)
	}

	publisher, closePublisher := newPublisher(cfg.Events, logger)
	defer closePublisher()

	querySvc := bootstrap.NewQueryService(cfg, backend, embedders, completer, publisher)
	healthSvc := healthuc.New(backend.Vectors, backend.Vectors, embedders.Documents, completer)
	usageSvc := usageuc.New(bootstrap.BudgetReaders(embedders.Budget, completer.Budget)...)

	server := chiTransport.NewServer(
		querySvc, healthSvc, backend.Vectors, usageSvc,
		chiTransport.StatsInfo{
			Dimension: cfg.Embedding.Vectorizer.Dimensions,
			Index:     backend.Index,
			Driver:    backend.Driver,
		},
		bootstrap.Limits(cfg.Pipeline),
		logger,
	)

	var limiter *chiTransport.RateLimiter
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = chiTransport.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}
	router := chiTransport.NewRouter(server, chiTransport.RouterOptions{
		APIKeys:        cfg.Auth.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimiter:    limiter,
		TrustProxy:     cfg.RateLimit.TrustProxy,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, "carequery.http"),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Error flushing traces", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newPublisher connects the result publisher, falling back to a no-op when
// events are disabled or NATS is unreachable.
func newPublisher(cfg config.EventsConfig, logger *zap.Logger) (query.ResultPublisher, func()) {
	if !cfg.Enabled {
		return events.Noop{}, func() {}
	}
	p, err := events.Connect(cfg.URL, cfg.Subject, logger)
	if err != nil {
		logger.Error("Result events disabled", zap.String("url", cfg.URL), zap.Error(err))
		return events.Noop{}, func() {}
	}
	logger.Info("Publishing query results", zap.String("subject", cfg.Subject))
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to drain NATS", zap.Error(err))
		}
	}
}

// preloadCorpus fills the in-process index from corpus.path.
func preloadCorpus(
	ctx context.Context, cfg config.Config, backend *bootstrap.Backend,
	embedders bootstrap.Embedders, logger *zap.Logger,
) {
	if cfg.Corpus.Path == "" {
		logger.Warn("Memory driver without corpus.path: index is empty")
		return
	}
	loader := bootstrap.NewLoader(cfg, backend, embedders, logger)
	results, err := bootstrap.LoadFile(ctx, loader, cfg.Corpus.Path)
	if err != nil {
		logger.Error("Corpus preload failed", zap.String("path", cfg.Corpus.Path), zap.Error(err))
		return
	}
	summary := batch.Summarize(results)
	logger.Info("Corpus preloaded",
		zap.String("path", cfg.Corpus.Path),
		zap.Int("ok", summary[batch.StatusOK]),
		zap.Int("skipped", summary[batch.StatusSkipped]),
		zap.Int("errors", summary[batch.StatusError]),
	)
}
