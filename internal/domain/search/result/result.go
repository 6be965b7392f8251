package result

import "github.com/kailas-cloud/carequery/internal/domain/document"

// Match is a single retrieval hit: a document and its similarity score in [0,1].
type Match struct {
	document document.Document
	score    float64
}

// New creates a match, clamping the score into [0,1].
func New(doc document.Document, score float64) Match {
	return Match{document: doc, score: min(max(score, 0), 1)}
}

// Document returns the matched document.
func (m Match) Document() document.Document { return m.document }

// Score returns the similarity score.
func (m Match) Score() float64 { return m.score }
