// Package bootstrap assembles stores, providers and services from configuration.
// It is shared by the API server and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/config"
	dbredis "github.com/kailas-cloud/carequery/internal/db/redis"
	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	corpusrepo "github.com/kailas-cloud/carequery/internal/repository/corpus"
	"github.com/kailas-cloud/carequery/internal/repository/memory"
	"github.com/kailas-cloud/carequery/internal/repository/pgstore"
	"github.com/kailas-cloud/carequery/internal/repository/qdrant"
)

// VectorStore is the vector index every driver provides.
type VectorStore interface {
	EnsureIndex(ctx context.Context, vc domain.VectorConfig) error
	Upsert(ctx context.Context, doc document.Document, vector []float32) error
	Search(ctx context.Context, vector []float32, f filter.Filter, k int) ([]result.Match, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
}

// Backend is an opened vector store. KV is set only for the rueidis drivers and
// backs the embedding cache and budget persistence.
type Backend struct {
	Vectors VectorStore
	KV      *dbredis.Store
	Driver  string
	Index   string
	closers []func()
}

// Close releases connections in reverse order of opening.
func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// OpenBackend connects to the configured driver and waits until it answers.
func OpenBackend(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*Backend, error) {
	timeout := time.Duration(cfg.ReadinessTimeout) * time.Second
	b := &Backend{Driver: cfg.Driver}

	switch cfg.Driver {
	case config.DriverRedis, config.DriverValkey:
		store, err := dbredis.NewStore(dbredis.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s store: %w", cfg.Driver, err)
		}
		b.closers = append(b.closers, store.Close)
		if err := store.WaitForReady(ctx, timeout); err != nil {
			b.Close()
			return nil, fmt.Errorf("%s not ready: %w", cfg.Driver, err)
		}
		b.KV = store
		b.Vectors = corpusrepo.New(store, corpusrepo.Options{
			KeyPrefix: cfg.KeyPrefix,
			HNSW:      corpusrepo.HNSWConfig{M: cfg.HNSWM, EFConstruct: cfg.HNSWEFConstruct},
		})
		b.Index = cfg.KeyPrefix + "corpus:idx"

	case config.DriverQdrant:
		store, err := qdrant.New(cfg.Addrs[0], cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("create qdrant store: %w", err)
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		if err := waitForReady(ctx, store, timeout); err != nil {
			b.Close()
			return nil, fmt.Errorf("qdrant not ready: %w", err)
		}
		b.Vectors = store
		b.Index = cfg.IndexName

	case config.DriverPgvector:
		connectCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		store, err := pgstore.New(connectCtx, cfg.DSN, cfg.IndexName)
		if err != nil {
			return nil, fmt.Errorf("create pgvector store: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		b.Vectors = store
		b.Index = cfg.IndexName

	case config.DriverMemory:
		b.Vectors = memory.New(0)
		b.Index = "memory"

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	logger.Info("Connected to vector store",
		zap.String("driver", cfg.Driver),
		zap.String("index", b.Index),
	)
	return b, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// waitForReady polls Ping until it succeeds or timeout elapses.
func waitForReady(ctx context.Context, p pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		err := p.Ping(ctx)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout after %s: %w", timeout, err)
		case <-ticker.C:
		}
	}
}
