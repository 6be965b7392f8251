package corpus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/batch"
	"github.com/kailas-cloud/carequery/internal/domain/document"
)

// Loader defaults.
const (
	DefaultBatchSize = 64
	DefaultWorkers   = 4
)

// Options configure a Loader.
type Options struct {
	BatchSize          int
	Workers            int
	MaxStoredTextChars int
	Vector             domain.VectorConfig
}

// Loader normalizes, embeds and upserts corpus records with a worker pool.
type Loader struct {
	embed  Embedder
	writer Writer
	opts   Options
	logger *zap.Logger
}

// NewLoader creates a corpus loader.
func NewLoader(embed Embedder, writer Writer, opts Options, logger *zap.Logger) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxStoredTextChars <= 0 {
		opts.MaxStoredTextChars = DefaultMaxStoredTextChars
	}
	if opts.Vector.Dimensions == 0 {
		opts.Vector = domain.DefaultVectorConfig()
	}
	return &Loader{embed: embed, writer: writer, opts: opts, logger: logger}
}

type job struct {
	offset int
	docs   []document.Document
	slots  []int
}

// Load writes records and returns one result per record, in input order.
// Only a failure to prepare the index is returned as an error.
func (l *Loader) Load(ctx context.Context, records []Record) ([]batch.Result, error) {
	if err := l.writer.EnsureIndex(ctx, l.opts.Vector); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}

	start := time.Now()
	results := make([]batch.Result, len(records))
	jobs := make(chan job, l.opts.Workers*2)

	var wg sync.WaitGroup
	for i := 0; i < l.opts.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for j := range jobs {
				l.process(ctx, workerID, j, results)
			}
		}(i)
	}

	l.produce(ctx, records, results, jobs)
	wg.Wait()

	summary := batch.Summarize(results)
	l.logger.Info("Corpus load finished",
		zap.Int("records", len(records)),
		zap.Int("ok", summary[batch.StatusOK]),
		zap.Int("skipped", summary[batch.StatusSkipped]),
		zap.Int("errors", summary[batch.StatusError]),
		zap.Duration("duration", time.Since(start)),
	)
	return results, nil
}

// produce normalizes records and sends full batches to the workers.
func (l *Loader) produce(ctx context.Context, records []Record, results []batch.Result, out chan<- job) {
	defer close(out)

	var cur job
	flush := func() bool {
		if len(cur.docs) == 0 {
			return true
		}
		select {
		case out <- cur:
		case <-ctx.Done():
			for _, slot := range cur.slots {
				results[slot] = batch.NewError(records[slot].ID, ctx.Err())
			}
			return false
		}
		cur = job{}
		return true
	}

	for i, rec := range records {
		if ctx.Err() != nil {
			results[i] = batch.NewError(rec.ID, ctx.Err())
			continue
		}
		doc, err := Normalize(rec, l.opts.MaxStoredTextChars)
		if err != nil {
			l.logger.Warn("Skipping record", zap.String("id", rec.ID), zap.Error(err))
			results[i] = batch.NewSkipped(rec.ID, err)
			continue
		}
		if len(cur.docs) == 0 {
			cur.offset = i
		}
		cur.docs = append(cur.docs, doc)
		cur.slots = append(cur.slots, i)
		if len(cur.docs) >= l.opts.BatchSize && !flush() {
			cur = job{}
		}
	}
	flush()
}

func (l *Loader) process(ctx context.Context, workerID int, j job, results []batch.Result) {
	texts := make([]string, len(j.docs))
	for i, d := range j.docs {
		texts[i] = d.Text()
	}

	emb, err := l.embed.BatchEmbed(ctx, texts)
	if err == nil && len(emb.Embeddings) != len(j.docs) {
		err = fmt.Errorf("%w: got %d vectors for %d texts",
			domain.ErrEmbeddingProviderError, len(emb.Embeddings), len(j.docs))
	}
	if err != nil {
		l.logger.Error("Batch embed failed",
			zap.Int("worker", workerID),
			zap.Int("offset", j.offset),
			zap.Int("size", len(j.docs)),
			zap.Error(err),
		)
		for i, d := range j.docs {
			results[j.slots[i]] = batch.NewError(d.ID(), err)
		}
		return
	}

	for i, d := range j.docs {
		if err := l.writer.Upsert(ctx, d, emb.Embeddings[i]); err != nil {
			l.logger.Error("Upsert failed", zap.Int("worker", workerID), zap.String("id", d.ID()), zap.Error(err))
			results[j.slots[i]] = batch.NewError(d.ID(), err)
			continue
		}
		results[j.slots[i]] = batch.NewOK(d.ID())
	}
}
