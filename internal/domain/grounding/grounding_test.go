package grounding

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

func makeMatches(n int, text string) []result.Match {
	out := make([]result.Match, n)
	for i := range out {
		doc := document.Reconstruct(fmt.Sprintf("doc_%d", i), text,
			taxonomy.Pharmacy, taxonomy.External, taxonomy.Public, "data/external/formulary.json", "Formulary")
		out[i] = result.New(doc, 1-float64(i)*0.1)
	}
	return out
}

func TestAssemble_LengthAndCitationCorrespondence(t *testing.T) {
	for _, n := range []int{0, 1, 3, 8, 10} {
		matches := makeMatches(n, "metformin tier 1")
		c := Assemble(matches, 0)
		if c.Len() != n {
			t.Fatalf("n=%d: Len() = %d", n, c.Len())
		}
		for i, e := range c.Entries() {
			if e.Index() != i+1 {
				t.Errorf("entry %d has index %d", i, e.Index())
			}
			if e.Document().ID() != matches[i].Document().ID() {
				t.Errorf("entry %d document %q, want %q", i, e.Document().ID(), matches[i].Document().ID())
			}
		}
	}
}

func TestAssemble_Empty(t *testing.T) {
	c := Assemble(nil, 1500)
	if !c.IsEmpty() || c.Render() != "" {
		t.Errorf("expected empty context, got %d entries", c.Len())
	}
}

func TestAssemble_TruncatesPerDocument(t *testing.T) {
	long := strings.Repeat("ü", 20)
	c := Assemble(append(makeMatches(1, long), makeMatches(1, "short")...), 10)

	entries := c.Entries()
	if !entries[0].Truncated() || entries[0].Text() != strings.Repeat("ü", 10)+"..." {
		t.Errorf("unexpected truncation %q", entries[0].Text())
	}
	if entries[1].Truncated() || entries[1].Text() != "short" {
		t.Errorf("short text must be kept, got %q", entries[1].Text())
	}
}

func TestRender(t *testing.T) {
	c := Assemble(makeMatches(2, "Metformin is covered at tier 1."), 0)
	got := c.Render()

	want := "[Document 1 - doc_0]\n" +
		"Domain: pharmacy\n" +
		"Source: Formulary\n" +
		"Source Type: external\n" +
		"Classification: public\n" +
		"Content:\n" +
		"Metformin is covered at tier 1.\n\n" +
		"[Document 2 - doc_1]"
	if !strings.HasPrefix(got, want) {
		t.Errorf("unexpected render:\n%s", got)
	}
}

func TestMatches_PreservesOrder(t *testing.T) {
	matches := makeMatches(4, "x")
	got := Assemble(matches, 0).Matches()
	for i := range matches {
		if got[i].Document().ID() != matches[i].Document().ID() {
			t.Fatalf("order changed at %d", i)
		}
	}
}

func TestCitedIndices(t *testing.T) {
	valid, invalid := CitedIndices("Metformin is covered [1][2]. See also [2] and [7].", 3)
	if !slices.Equal(valid, []int{1, 2}) {
		t.Errorf("valid = %v", valid)
	}
	if !slices.Equal(invalid, []int{7}) {
		t.Errorf("invalid = %v", invalid)
	}

	valid, invalid = CitedIndices("No citations here.", 3)
	if valid != nil || invalid != nil {
		t.Errorf("expected none, got %v / %v", valid, invalid)
	}
}
