// Package answer holds the final output of a query pipeline run.
package answer

import (
	"time"

	"github.com/kailas-cloud/carequery/internal/domain/search/result"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
)

// Result is the immutable outcome of one successful query.
type Result struct {
	id              string
	question        string
	text            string
	sources         []result.Match
	domainsSearched []taxonomy.Tag
	elapsed         time.Duration
	completedAt     time.Time
}

// New creates a Result. Sources and domains are copied.
func New(
	id, question, text string,
	sources []result.Match, domainsSearched []taxonomy.Tag,
	elapsed time.Duration, completedAt time.Time,
) Result {
	return Result{
		id:              id,
		question:        question,
		text:            text,
		sources:         append([]result.Match{}, sources...),
		domainsSearched: append([]taxonomy.Tag{}, domainsSearched...),
		elapsed:         elapsed,
		completedAt:     completedAt,
	}
}

// ID returns the query identifier.
func (r Result) ID() string { return r.id }

// Question returns the question as submitted.
func (r Result) Question() string { return r.question }

// Answer returns the generated answer text.
func (r Result) Answer() string { return r.text }

// Sources returns the matches in citation order.
func (r Result) Sources() []result.Match { return append([]result.Match{}, r.sources...) }

// DomainsSearched returns the effective domain restriction, empty when unrestricted.
func (r Result) DomainsSearched() []taxonomy.Tag {
	return append([]taxonomy.Tag{}, r.domainsSearched...)
}

// Elapsed returns the pipeline wall time.
func (r Result) Elapsed() time.Duration { return r.elapsed }

// ElapsedSeconds returns the pipeline wall time in seconds.
func (r Result) ElapsedSeconds() float64 { return r.elapsed.Seconds() }

// CompletedAt returns when the pipeline finished.
func (r Result) CompletedAt() time.Time { return r.completedAt }
