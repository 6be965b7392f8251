package corpus

import (
	"encoding/binary"
	"math"

	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// Hash field names. Tag fields share their names with filter conditions.
const (
	fieldText           = "text"
	fieldDomain         = filter.FieldDomain
	fieldSourceType     = filter.FieldSourceType
	fieldClassification = filter.FieldClassification
	fieldSourcePath     = "source_path"
	fieldSourceSystem   = "source_system"
	fieldVector         = "vector"
	fieldVectorScore    = "__vector_score"
)

// returnFields is everything a search hit needs to rebuild a Document.
var returnFields = []string{
	fieldText, fieldDomain, fieldSourceType, fieldClassification,
	fieldSourcePath, fieldSourceSystem,
}

// buildHashFields converts a Document and its vector into a flat map for HSET.
func buildHashFields(doc document.Document, vector []float32) map[string]string {
	m := map[string]string{
		fieldText:           doc.Text(),
		fieldDomain:         string(doc.Domain()),
		fieldSourceType:     string(doc.SourceType()),
		fieldClassification: string(doc.Classification()),
		fieldVector:         vectorToBytes(vector),
	}
	if p := doc.SourcePath(); p != "" {
		m[fieldSourcePath] = p
	}
	if s := doc.SourceSystem(); s != "" && s != doc.SourcePath() {
		m[fieldSourceSystem] = s
	}
	return m
}

// parseHashFields converts stored fields back into a Document.
func parseHashFields(id string, m map[string]string) document.Document {
	return document.Reconstruct(
		id,
		m[fieldText],
		taxonomy.Tag(m[fieldDomain]),
		taxonomy.SourceType(m[fieldSourceType]),
		taxonomy.Classification(m[fieldClassification]),
		m[fieldSourcePath],
		m[fieldSourceSystem],
	)
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
