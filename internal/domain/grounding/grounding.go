// Package grounding turns ranked matches into the numbered context a generated
// answer is grounded on and cites.
package grounding

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/carequery/internal/domain/document"
	"github.com/kailas-cloud/carequery/internal/domain/search/result"
)

// DefaultMaxCharsPerDocument caps each document's text in the prompt.
const DefaultMaxCharsPerDocument = 1500

const ellipsis = "..."

// Entry is one numbered context document.
type Entry struct {
	index     int
	text      string
	truncated bool
	match     result.Match
}

// Index returns the 1-based citation index.
func (e Entry) Index() int { return e.index }

// Text returns the possibly truncated document text.
func (e Entry) Text() string { return e.text }

// Truncated reports whether the text was cut to the character budget.
func (e Entry) Truncated() bool { return e.truncated }

// Document returns the source document.
func (e Entry) Document() document.Document { return e.match.Document() }

// Match returns the match the entry was built from.
func (e Entry) Match() result.Match { return e.match }

// Context is the ordered set of entries handed to the generator.
type Context struct {
	entries []Entry
}

// Assemble numbers matches from 1 in the given order and caps each text at maxChars
// runes. Every match is kept. maxChars <= 0 selects DefaultMaxCharsPerDocument.
func Assemble(matches []result.Match, maxChars int) Context {
	if maxChars <= 0 {
		maxChars = DefaultMaxCharsPerDocument
	}
	entries := make([]Entry, len(matches))
	for i, m := range matches {
		text, truncated := truncate(m.Document().Text(), maxChars)
		entries[i] = Entry{index: i + 1, text: text, truncated: truncated, match: m}
	}
	return Context{entries: entries}
}

// Len returns the number of entries.
func (c Context) Len() int { return len(c.entries) }

// IsEmpty reports whether there is nothing to ground on.
func (c Context) IsEmpty() bool { return len(c.entries) == 0 }

// Entries returns a copy of the entries.
func (c Context) Entries() []Entry { return append([]Entry(nil), c.entries...) }

// Matches returns the matches in citation order.
func (c Context) Matches() []result.Match {
	out := make([]result.Match, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.match
	}
	return out
}

// Render formats the entries as labeled blocks separated by blank lines.
func (c Context) Render() string {
	var b strings.Builder
	for i, e := range c.entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		doc := e.Document()
		fmt.Fprintf(&b, "[Document %d - %s]\n", e.index, doc.ID())
		fmt.Fprintf(&b, "Domain: %s\n", doc.Domain())
		fmt.Fprintf(&b, "Source: %s\n", doc.SourceSystem())
		fmt.Fprintf(&b, "Source Type: %s\n", doc.SourceType())
		fmt.Fprintf(&b, "Classification: %s\n", doc.Classification())
		b.WriteString("Content:\n")
		b.WriteString(e.text)
	}
	return b.String()
}

func truncate(s string, maxChars int) (string, bool) {
	if utf8.RuneCountInString(s) <= maxChars {
		return s, false
	}
	runes := []rune(s)
	return string(runes[:maxChars]) + ellipsis, true
}

var citationRegex = regexp.MustCompile(`\[(\d{1,3})\]`)

// CitedIndices extracts [n] markers from an answer. Indices within 1..n are
// returned in valid, the rest in invalid; both sorted and deduplicated.
func CitedIndices(answer string, n int) (valid, invalid []int) {
	seen := make(map[int]bool)
	for _, m := range citationRegex.FindAllStringSubmatch(answer, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil || seen[idx] {
			continue
		}
		seen[idx] = true
		if idx >= 1 && idx <= n {
			valid = append(valid, idx)
		} else {
			invalid = append(invalid, idx)
		}
	}
	sort.Ints(valid)
	sort.Ints(invalid)
	return valid, invalid
}
