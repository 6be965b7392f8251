package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/config"
	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/batch"
	"github.com/kailas-cloud/carequery/internal/domain/search/request"
	"github.com/kailas-cloud/carequery/internal/usecase/budget"
	corpusuc "github.com/kailas-cloud/carequery/internal/usecase/corpus"
	generationuc "github.com/kailas-cloud/carequery/internal/usecase/generation"
	"github.com/kailas-cloud/carequery/internal/usecase/query"
	"github.com/kailas-cloud/carequery/internal/usecase/retrieval"
	usageuc "github.com/kailas-cloud/carequery/internal/usecase/usage"
)

// Limits converts pipeline settings into request limits.
func Limits(cfg config.PipelineConfig) request.Limits {
	return request.Limits{
		MaxQuestionLength: cfg.MaxQuestionChars,
		DefaultTopK:       cfg.DefaultTopK,
		MaxTopK:           cfg.MaxTopK,
	}
}

// VectorConfig describes the index for the active vectorizer.
func VectorConfig(cfg config.Config) domain.VectorConfig {
	vc := domain.DefaultVectorConfig()
	vc.Model = cfg.Embedding.Vectorizer.Model
	vc.Dimensions = cfg.Embedding.Vectorizer.Dimensions
	return vc
}

// NewQueryService wires retrieval and generation into the orchestrator.
// publisher may be nil.
func NewQueryService(
	cfg config.Config, b *Backend, emb Embedders, comp Completer, publisher query.ResultPublisher,
) *query.Service {
	retriever := retrieval.New(emb.Query, b.Vectors)
	generator := generationuc.New(comp, generationuc.Options{
		Temperature: *cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
	})
	return query.New(retriever, generator, publisher, query.Options{
		RetrievalTimeout:    seconds(cfg.Pipeline.RetrievalTimeoutSec),
		GenerationTimeout:   seconds(cfg.Pipeline.GenerationTimeoutSec),
		MaxCharsPerDocument: cfg.Pipeline.ContextCharsPerDocument,
		ExampleQueries:      cfg.Pipeline.ExampleQueries,
	})
}

// NewLoader builds the corpus loader over the document embedder.
func NewLoader(cfg config.Config, b *Backend, emb Embedders, logger *zap.Logger) *corpusuc.Loader {
	return corpusuc.NewLoader(emb.Documents, b.Vectors, corpusuc.Options{
		BatchSize:          cfg.Corpus.BatchSize,
		Workers:            cfg.Corpus.Workers,
		MaxStoredTextChars: cfg.Corpus.MaxStoredTextChars,
		Vector:             VectorConfig(cfg),
	}, logger)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// BudgetReaders returns the configured trackers as usage readers, skipping nil ones.
func BudgetReaders(trackers ...*budget.Tracker) []usageuc.BudgetReader {
	out := make([]usageuc.BudgetReader, 0, len(trackers))
	for _, t := range trackers {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// LoadFile decodes a corpus file and loads it through l.
func LoadFile(ctx context.Context, l *corpusuc.Loader, path string) ([]batch.Result, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	records, err := corpusuc.DecodeRecords(f)
	if err != nil {
		return nil, fmt.Errorf("decode corpus %s: %w", path, err)
	}
	return l.Load(ctx, records)
}
