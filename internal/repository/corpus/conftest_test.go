package corpus

import (
	"context"
	"testing"

	"github.com/kailas-cloud/carequery/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	pingFn          func(ctx context.Context) error
	hsetFn          func(ctx context.Context, key string, fields map[string]string) error
	createIndexFn   func(ctx context.Context, def *db.IndexDefinition) error
	indexDocCountFn func(ctx context.Context, name string) (int64, error)
	searchKNNFn     func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexDocCount(ctx context.Context, name string) (int64, error) {
	if m.indexDocCountFn != nil {
		return m.indexDocCountFn(ctx, name)
	}
	return 0, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, Options{KeyPrefix: "carequery:"}), ms
}
