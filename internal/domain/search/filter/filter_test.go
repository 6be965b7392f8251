package filter

import (
	"slices"
	"testing"

	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

func TestBuild_UnrestrictedDefault(t *testing.T) {
	f := Build(Explicit{}, nil)
	if !f.IsEmpty() {
		t.Fatalf("expected all fields any, got %+v", f.Conditions())
	}
	if len(f.Domains()) != 0 {
		t.Errorf("expected no domains, got %v", f.Domains())
	}
	if f.Domains() == nil {
		t.Error("Domains() must be an empty slice, not nil")
	}
}

func TestBuild_ExplicitDomainWins(t *testing.T) {
	detectedSets := [][]taxonomy.Tag{
		nil,
		{taxonomy.Pharmacy},
		{taxonomy.Pharmacy, taxonomy.Benefits},
		{taxonomy.Compliance},
	}
	for _, explicit := range taxonomy.Tags() {
		for _, detected := range detectedSets {
			f := Build(Explicit{Domain: explicit}, detected)
			got, ok := f.Domain()
			if !ok || got != explicit {
				t.Errorf("explicit %s with detected %v: got %q", explicit, detected, got)
			}
		}
	}
}

func TestBuild_DetectedDomains(t *testing.T) {
	tests := []struct {
		name     string
		detected []taxonomy.Tag
		want     []taxonomy.Tag
	}{
		{"none", nil, []taxonomy.Tag{}},
		{"single", []taxonomy.Tag{taxonomy.Pharmacy}, []taxonomy.Tag{taxonomy.Pharmacy}},
		{"tie is unrestricted", []taxonomy.Tag{taxonomy.Benefits, taxonomy.Pharmacy}, []taxonomy.Tag{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(Explicit{}, tt.detected).Domains()
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuild_PassesThroughSourceTypeAndClassification(t *testing.T) {
	f := Build(Explicit{SourceType: taxonomy.Internal, Classification: taxonomy.Restricted},
		[]taxonomy.Tag{taxonomy.Claims})

	want := []Condition{
		{Field: FieldDomain, Value: "claims"},
		{Field: FieldSourceType, Value: "internal"},
		{Field: FieldClassification, Value: "restricted"},
	}
	if !slices.Equal(f.Conditions(), want) {
		t.Errorf("got %v, want %v", f.Conditions(), want)
	}

	// The classifier never sets source type or classification.
	g := Build(Explicit{}, []taxonomy.Tag{taxonomy.Claims})
	if _, ok := g.SourceType(); ok {
		t.Error("source type must stay any")
	}
	if _, ok := g.Classification(); ok {
		t.Error("classification must stay any")
	}
}

func TestBuild_Deterministic(t *testing.T) {
	in := Explicit{SourceType: taxonomy.External}
	detected := []taxonomy.Tag{taxonomy.Compliance}
	first := Build(in, detected)
	for range 10 {
		if Build(in, detected) != first {
			t.Fatal("Build is not deterministic")
		}
	}
}

func TestMatches(t *testing.T) {
	pharmacyDoc := document.Reconstruct("f1", "tier 1", taxonomy.Pharmacy, taxonomy.External, taxonomy.Public, "", "")
	claimDoc := document.Reconstruct("c1", "claim", taxonomy.Claims, taxonomy.Internal, taxonomy.Restricted, "", "")

	tests := []struct {
		name string
		f    Filter
		doc  document.Document
		want bool
	}{
		{"empty matches all", Filter{}, claimDoc, true},
		{"domain hit", Build(Explicit{Domain: taxonomy.Pharmacy}, nil), pharmacyDoc, true},
		{"domain miss", Build(Explicit{Domain: taxonomy.Compliance}, nil), pharmacyDoc, false},
		{"source type miss", Build(Explicit{SourceType: taxonomy.Internal}, nil), pharmacyDoc, false},
		{"classification hit", Build(Explicit{Classification: taxonomy.Restricted}, nil), claimDoc, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Matches(tt.doc); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
