package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
)

type entry struct {
	doc    document.Document
	vector []float32
	norm   float64
	seq    int
}

// Store is an in-process brute-force cosine index.
type Store struct {
	mu      sync.RWMutex
	dims    int
	entries map[string]*entry
	seq     int
}

// New creates an empty store. dims of zero is fixed by the first upsert.
func New(dims int) *Store {
	return &Store{dims: dims, entries: make(map[string]*entry)}
}

// EnsureIndex fixes the vector dimensions.
func (s *Store) EnsureIndex(_ context.Context, vc domain.VectorConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dims != 0 && s.dims != vc.Dimensions {
		return fmt.Errorf("%w: index has %d, requested %d", domain.ErrVectorDimMismatch, s.dims, vc.Dimensions)
	}
	s.dims = vc.Dimensions
	return nil
}

// Upsert stores or replaces a document and its vector.
func (s *Store) Upsert(_ context.Context, doc document.Document, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dims == 0 {
		s.dims = len(vector)
	}
	if len(vector) != s.dims {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, len(vector), s.dims)
	}

	seq := s.seq
	if prev, ok := s.entries[doc.ID()]; ok {
		seq = prev.seq
	} else {
		s.seq++
	}
	s.entries[doc.ID()] = &entry{
		doc:    doc,
		vector: append([]float32(nil), vector...),
		norm:   norm(vector),
		seq:    seq,
	}
	return nil
}

// Search returns up to k matches passing f, best first. Equal scores keep insertion order.
func (s *Store) Search(ctx context.Context, vector []float32, f filter.Filter, k int) ([]result.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("memory search: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dims != 0 && len(vector) != s.dims {
		return nil, fmt.Errorf("%w: query has %d, index has %d", domain.ErrVectorDimMismatch, len(vector), s.dims)
	}
	qn := norm(vector)

	type scored struct {
		e     *entry
		score float64
	}
	candidates := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		if !f.Matches(e.doc) {
			continue
		}
		candidates = append(candidates, scored{e: e, score: cosine(vector, e.vector, qn, e.norm)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].e.seq < candidates[j].e.seq
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]result.Match, len(candidates))
	for i, c := range candidates {
		out[i] = result.New(c.e.doc, c.score)
	}
	return out, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.entries)), nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, an, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
