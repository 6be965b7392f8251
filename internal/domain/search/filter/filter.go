package filter

import (
	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// Field names shared by every vector store backend.
const (
	FieldDomain         = "domain"
	FieldSourceType     = "source_type"
	FieldClassification = "classification"
)

// Explicit holds caller-supplied filter values. Zero values mean "not given".
type Explicit struct {
	Domain         taxonomy.Tag
	SourceType     taxonomy.SourceType
	Classification taxonomy.Classification
}

// Filter is a retrieval predicate over three independent fields.
// Each field is a single concrete value or "any" (the zero value).
type Filter struct {
	domain         taxonomy.Tag
	sourceType     taxonomy.SourceType
	classification taxonomy.Classification
}

// Build merges explicit values with the classifier output.
// An explicit domain always wins. Without one, a single detected domain
// restricts the search; zero or several detected domains leave it unrestricted.
// Source type and classification come only from explicit input.
func Build(explicit Explicit, detected []taxonomy.Tag) Filter {
	f := Filter{
		domain:         explicit.Domain,
		sourceType:     explicit.SourceType,
		classification: explicit.Classification,
	}
	if f.domain == "" && len(detected) == 1 {
		f.domain = detected[0]
	}
	return f
}

// Domain returns the domain restriction and whether one is set.
func (f Filter) Domain() (taxonomy.Tag, bool) { return f.domain, f.domain != "" }

// SourceType returns the source type restriction and whether one is set.
func (f Filter) SourceType() (taxonomy.SourceType, bool) { return f.sourceType, f.sourceType != "" }

// Classification returns the classification restriction and whether one is set.
func (f Filter) Classification() (taxonomy.Classification, bool) {
	return f.classification, f.classification != ""
}

// Domains returns the effective domain restriction: empty when unrestricted.
func (f Filter) Domains() []taxonomy.Tag {
	if f.domain == "" {
		return []taxonomy.Tag{}
	}
	return []taxonomy.Tag{f.domain}
}

// IsEmpty reports whether all three fields are "any".
func (f Filter) IsEmpty() bool {
	return f.domain == "" && f.sourceType == "" && f.classification == ""
}

// Condition is a single exact-match constraint on a document field.
type Condition struct {
	Field string
	Value string
}

// Conditions returns the concrete constraints in a fixed field order.
func (f Filter) Conditions() []Condition {
	var conds []Condition
	if f.domain != "" {
		conds = append(conds, Condition{Field: FieldDomain, Value: string(f.domain)})
	}
	if f.sourceType != "" {
		conds = append(conds, Condition{Field: FieldSourceType, Value: string(f.sourceType)})
	}
	if f.classification != "" {
		conds = append(conds, Condition{Field: FieldClassification, Value: string(f.classification)})
	}
	return conds
}

// Matches reports whether doc satisfies every concrete constraint.
func (f Filter) Matches(doc document.Document) bool {
	if f.domain != "" && doc.Domain() != f.domain {
		return false
	}
	if f.sourceType != "" && doc.SourceType() != f.sourceType {
		return false
	}
	if f.classification != "" && doc.Classification() != f.classification {
		return false
	}
	return true
}
