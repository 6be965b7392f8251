package corpus

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/carequery/internal/db"
	"github.com/kailas-cloud/carequery/internal/domain"
)

// HNSWConfig holds HNSW index tuning parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// DefaultHNSWConfig returns the index build parameters used when none are configured.
func DefaultHNSWConfig() HNSWConfig {
	return HNSWConfig{M: 16, EFConstruct: 200}
}

// buildIndex creates the corpus index definition: one TAG per filterable
// field plus the document vector.
func buildIndex(name, prefix string, vc domain.VectorConfig, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	distance, err := distanceMetric(vc.DistanceMetric)
	if err != nil {
		return nil, err
	}

	b := db.NewIndex(name).
		Prefix(prefix).
		Tag(fieldDomain).
		Tag(fieldSourceType).
		Tag(fieldClassification)

	switch strings.ToLower(vc.Algorithm) {
	case "", "hnsw":
		b = b.VectorHNSW(fieldVector, vc.Dimensions, distance, hnsw.M, hnsw.EFConstruct)
	case "flat":
		b = b.VectorFlat(fieldVector, vc.Dimensions, distance, 0)
	default:
		return nil, fmt.Errorf("unknown vector algorithm: %s", vc.Algorithm)
	}
	return b.Build()
}

func distanceMetric(s string) (db.DistanceMetric, error) {
	switch strings.ToLower(s) {
	case "", "cosine":
		return db.DistanceCosine, nil
	case "l2":
		return db.DistanceL2, nil
	case "ip":
		return db.DistanceIP, nil
	default:
		return "", fmt.Errorf("unknown distance metric: %s", s)
	}
}
