// Package taxonomy defines the healthcare corpus vocabulary: domain tags,
// source types and data classifications, plus the keyword domain classifier.
package taxonomy

import (
	"fmt"
	"strings"
)

// Tag is a healthcare knowledge domain.
type Tag string

// Recognized domain tags, in classifier declaration order.
const (
	Eligibility Tag = "eligibility"
	Claims      Tag = "claims"
	Benefits    Tag = "benefits"
	Pharmacy    Tag = "pharmacy"
	Compliance  Tag = "compliance"
	Providers   Tag = "providers"
)

// Tags returns all recognized domain tags in declaration order.
func Tags() []Tag {
	return []Tag{Eligibility, Claims, Benefits, Pharmacy, Compliance, Providers}
}

// ParseTag parses a domain tag, case-insensitively.
func ParseTag(s string) (Tag, error) {
	t := Tag(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Tags() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// SourceType says whether a document comes from an internal system or a public source.
type SourceType string

// Source types.
const (
	Internal SourceType = "internal"
	External SourceType = "external"
)

// SourceTypes returns all source types.
func SourceTypes() []SourceType { return []SourceType{Internal, External} }

// ParseSourceType parses a source type, case-insensitively.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(strings.ToLower(strings.TrimSpace(s))) {
	case Internal:
		return Internal, nil
	case External:
		return External, nil
	}
	return "", fmt.Errorf("unknown source type %q", s)
}

// SourceTypeForPath derives the source type from an ingestion file path:
// files under an internal/ directory are internal, everything else is external.
func SourceTypeForPath(path string) SourceType {
	if strings.Contains(strings.ReplaceAll(path, `\`, "/"), "internal/") {
		return Internal
	}
	return External
}

// Classification is the data sensitivity of a document.
type Classification string

// Classifications.
const (
	Restricted Classification = "restricted"
	Public     Classification = "public"
)

// Classifications returns all classifications.
func Classifications() []Classification { return []Classification{Restricted, Public} }

// ParseClassification parses a classification. Ingestion labels restricted
// member data "PII", so that spelling is accepted as an alias.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(Restricted), "pii":
		return Restricted, nil
	case string(Public):
		return Public, nil
	}
	return "", fmt.Errorf("unknown classification %q", s)
}

// ClassificationFor returns the default classification of a domain:
// member eligibility and claims carry PII, everything else is public.
func ClassificationFor(t Tag) Classification {
	switch t {
	case Eligibility, Claims:
		return Restricted
	}
	return Public
}
