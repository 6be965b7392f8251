package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/search/filter"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

func intPtr(v int) *int { return &v }

func TestNew_Defaults(t *testing.T) {
	r, err := New(Params{Question: "What drugs require step therapy?"}, DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TopK() != DefaultTopK {
		t.Errorf("TopK() = %d, want %d", r.TopK(), DefaultTopK)
	}
	if r.Explicit() != (filter.Explicit{}) {
		t.Errorf("expected no explicit filters, got %+v", r.Explicit())
	}
}

func TestNew_ParsesFilters(t *testing.T) {
	r, err := New(Params{
		Question:       "List CMS requirements",
		TopK:           intPtr(50),
		Domain:         "Compliance",
		SourceType:     "external",
		Classification: "PII",
	}, DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ex := r.Explicit()
	if ex.Domain != taxonomy.Compliance || ex.SourceType != taxonomy.External ||
		ex.Classification != taxonomy.Restricted {
		t.Errorf("unexpected explicit filter %+v", ex)
	}
	if r.TopK() != 50 {
		t.Errorf("TopK() = %d", r.TopK())
	}
}

func TestNew_KeepsQuestionVerbatim(t *testing.T) {
	q := "  Is metformin covered?  "
	r, err := New(Params{Question: q}, DefaultLimits())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Question() != q {
		t.Errorf("Question() = %q, want %q", r.Question(), q)
	}
}

func TestNew_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		p     Params
		field string
	}{
		{"empty question", Params{Question: ""}, "question"},
		{"whitespace question", Params{Question: " \n\t"}, "question"},
		{"too long", Params{Question: strings.Repeat("a", MaxQuestionLength+1)}, "question"},
		{"zero top_k", Params{Question: "q", TopK: intPtr(0)}, "top_k"},
		{"top_k over max", Params{Question: "q", TopK: intPtr(51)}, "top_k"},
		{"unknown domain", Params{Question: "q", Domain: "dental"}, "domain_filter"},
		{"unknown source type", Params{Question: "q", SourceType: "partner"}, "source_type_filter"},
		{"unknown classification", Params{Question: "q", Classification: "secret"}, "classification_filter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.p, DefaultLimits())
			if !errors.Is(err, domain.ErrValidationFailed) {
				t.Fatalf("expected validation failure, got %v", err)
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestNew_MultibyteLengthCountsRunes(t *testing.T) {
	q := strings.Repeat("é", MaxQuestionLength)
	if _, err := New(Params{Question: q}, DefaultLimits()); err != nil {
		t.Errorf("1000 runes must be accepted: %v", err)
	}
}
