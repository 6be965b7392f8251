package corpus

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/carequery/internal/db"
	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
)

// store is the consumer interface for corpus storage (ISP).
type store interface {
	Ping(ctx context.Context) error
	HSet(ctx context.Context, key string, fields map[string]string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexDocCount(ctx context.Context, name string) (int64, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Options configures key layout and index tuning.
type Options struct {
	KeyPrefix string
	HNSW      HNSWConfig
}

// Repo stores corpus documents as hashes under one FT index.
// It implements retrieval.Searcher and corpus.Writer.
type Repo struct {
	store     store
	keyPrefix string
	hnsw      HNSWConfig
}

// New creates a corpus repository.
func New(s store, opts Options) *Repo {
	if opts.HNSW.M <= 0 || opts.HNSW.EFConstruct <= 0 {
		opts.HNSW = DefaultHNSWConfig()
	}
	return &Repo{store: s, keyPrefix: opts.KeyPrefix, hnsw: opts.HNSW}
}

// EnsureIndex creates the corpus index. An existing index is kept as is.
func (r *Repo) EnsureIndex(ctx context.Context, vc domain.VectorConfig) error {
	def, err := buildIndex(r.indexName(), r.docPrefix(), vc, r.hnsw)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// Upsert writes a document and its vector. Rewriting an ID replaces the stored fields.
func (r *Repo) Upsert(ctx context.Context, doc document.Document, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s", domain.ErrVectorDimMismatch, doc.ID())
	}
	key := r.docKey(doc.ID())
	if err := r.store.HSet(ctx, key, buildHashFields(doc, vector)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Search runs a KNN query with every filter condition as a TAG pre-filter.
func (r *Repo) Search(ctx context.Context, vector []float32, f filter.Filter, k int) ([]result.Match, error) {
	conds := f.Conditions()
	filters := make([]db.TagFilter, 0, len(conds))
	for _, c := range conds {
		filters = append(filters, db.TagFilter{Field: c.Field, Value: c.Value})
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: append([]string{fieldVectorScore}, returnFields...),
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return []result.Match{}, nil
		}
		return nil, fmt.Errorf("knn search: %w", err)
	}

	matches := make([]result.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		id := strings.TrimPrefix(e.Key, r.docPrefix())
		matches = append(matches, result.New(parseHashFields(id, e.Fields), e.Score))
	}
	return matches, nil
}

// Count returns the number of indexed documents. A missing index counts as empty.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	n, err := r.store.IndexDocCount(ctx, r.indexName())
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("index doc count: %w", err)
	}
	return n, nil
}

// Ping checks store connectivity.
func (r *Repo) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (r *Repo) indexName() string {
	return r.keyPrefix + "corpus:idx"
}

func (r *Repo) docPrefix() string {
	return r.keyPrefix + "doc:"
}

func (r *Repo) docKey(id string) string {
	return r.docPrefix() + id
}
