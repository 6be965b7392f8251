package pgstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

const undefinedTable = "42P01"

var tableRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// filterColumns maps filter fields to columns. Only these may appear in a WHERE clause.
var filterColumns = map[string]string{
	filter.FieldDomain:         "domain",
	filter.FieldSourceType:     "source_type",
	filter.FieldClassification: "classification",
}

// Store keeps the corpus in a Postgres table with a pgvector column.
type Store struct {
	pool  *pgxpool.Pool
	table string
}

// New creates the vector extension and opens a pool with pgvector types registered.
func New(ctx context.Context, dsn, table string) (*Store, error) {
	if !tableRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	_, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	_ = conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("create vector extension: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, c *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, c)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	return &Store{pool: pool, table: table}, nil
}

// Close closes the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureIndex creates the corpus table and its HNSW and domain indexes.
func (s *Store) EnsureIndex(ctx context.Context, vc domain.VectorConfig) error {
	if vc.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive", domain.ErrVectorDimMismatch)
	}
	ops, err := opsClass(vc.DistanceMetric)
	if err != nil {
		return err
	}
	for _, stmt := range schemaStatements(s.table, vc.Dimensions, ops) {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts or replaces a document row. Replacing keeps the original insertion order.
func (s *Store) Upsert(ctx context.Context, doc document.Document, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector for %s", domain.ErrVectorDimMismatch, doc.ID())
	}
	sourceSystem := doc.SourceSystem()
	if sourceSystem == doc.SourcePath() {
		sourceSystem = ""
	}
	_, err := s.pool.Exec(ctx, upsertSQL(s.table),
		doc.ID(), doc.Text(), string(doc.Domain()), string(doc.SourceType()),
		string(doc.Classification()), doc.SourcePath(), sourceSystem,
		pgvector.NewVector(vector),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", doc.ID(), err)
	}
	return nil
}

// Search returns up to k rows passing every filter condition, nearest first.
// Score is cosine similarity clamped to [0, 1].
func (s *Store) Search(ctx context.Context, vector []float32, f filter.Filter, k int) ([]result.Match, error) {
	query, args, err := searchSQL(s.table, f, k)
	if err != nil {
		return nil, err
	}
	args[0] = pgvector.NewVector(vector)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		if isUndefinedTable(err) {
			return []result.Match{}, nil
		}
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	matches := make([]result.Match, 0, k)
	for rows.Next() {
		var (
			id, text, dom, st, cls, path, sys string
			score                             float64
		)
		if err := rows.Scan(&id, &text, &dom, &st, &cls, &path, &sys, &score); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		doc := document.Reconstruct(id, text,
			taxonomy.Tag(dom), taxonomy.SourceType(st), taxonomy.Classification(cls), path, sys)
		matches = append(matches, result.New(doc, max(0, score)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return matches, nil
}

// Count returns the number of stored documents. A missing table counts as empty.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT count(*) FROM "+quote(s.table)).Scan(&n)
	if err != nil {
		if isUndefinedTable(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func schemaStatements(table string, dims int, ops string) []string {
	t := quote(table)
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
	id             TEXT PRIMARY KEY,
	text           TEXT NOT NULL,
	domain         TEXT NOT NULL,
	source_type    TEXT NOT NULL,
	classification TEXT NOT NULL,
	source_path    TEXT NOT NULL DEFAULT '',
	source_system  TEXT NOT NULL DEFAULT '',
	embedding      vector(` + strconv.Itoa(dims) + `) NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS ` + quote(table+"_embedding_idx") + ` ON ` + t +
			` USING hnsw (embedding ` + ops + `)`,
		`CREATE INDEX IF NOT EXISTS ` + quote(table+"_domain_idx") + ` ON ` + t + ` (domain)`,
	}
}

func upsertSQL(table string) string {
	return `INSERT INTO ` + quote(table) + `
	(id, text, domain, source_type, classification, source_path, source_system, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	text = EXCLUDED.text,
	domain = EXCLUDED.domain,
	source_type = EXCLUDED.source_type,
	classification = EXCLUDED.classification,
	source_path = EXCLUDED.source_path,
	source_system = EXCLUDED.source_system,
	embedding = EXCLUDED.embedding`
}

// searchSQL builds the KNN query. args[0] is reserved for the query vector.
func searchSQL(table string, f filter.Filter, k int) (string, []any, error) {
	if k < 1 {
		return "", nil, fmt.Errorf("k must be positive, got %d", k)
	}
	args := []any{nil}
	var where []string
	for _, c := range f.Conditions() {
		col, ok := filterColumns[c.Field]
		if !ok {
			return "", nil, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		args = append(args, c.Value)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	args = append(args, k)

	var b strings.Builder
	b.WriteString(`SELECT id, text, domain, source_type, classification, source_path, source_system, `)
	b.WriteString(`1 - (embedding <=> $1) AS score FROM `)
	b.WriteString(quote(table))
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	// A bare distance ORDER BY is what lets the planner pick the HNSW index.
	fmt.Fprintf(&b, " ORDER BY embedding <=> $1 LIMIT $%d", len(args))
	return b.String(), args, nil
}

// opsClass returns the HNSW operator class. Search orders by <=>, so only cosine is served.
func opsClass(metric string) (string, error) {
	switch strings.ToLower(metric) {
	case "", "cosine":
		return "vector_cosine_ops", nil
	}
	return "", fmt.Errorf("unsupported distance metric for pgvector store: %s", metric)
}

func quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
