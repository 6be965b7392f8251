package events

import (
	"time"

	"github.com/kailas-cloud/carequery/internal/domain/answer"
)

// QueryCompleted is the wire form of a finished query. Source text is omitted;
// consumers resolve documents by ID.
type QueryCompleted struct {
	ID              string        `json:"id"`
	Question        string        `json:"question"`
	Answer          string        `json:"answer"`
	Sources         []SourceEvent `json:"sources"`
	DomainsSearched []string      `json:"domains_searched"`
	ElapsedSeconds  float64       `json:"elapsed_seconds"`
	CompletedAt     time.Time     `json:"completed_at"`
}

// SourceEvent identifies one cited document.
type SourceEvent struct {
	DocID          string  `json:"doc_id"`
	Domain         string  `json:"domain"`
	SourceType     string  `json:"source_type"`
	Classification string  `json:"classification"`
	SourceSystem   string  `json:"source_system"`
	Score          float64 `json:"score"`
}

func fromResult(r answer.Result) QueryCompleted {
	matches := r.Sources()
	sources := make([]SourceEvent, 0, len(matches))
	for _, m := range matches {
		doc := m.Document()
		sources = append(sources, SourceEvent{
			DocID:          doc.ID(),
			Domain:         string(doc.Domain()),
			SourceType:     string(doc.SourceType()),
			Classification: string(doc.Classification()),
			SourceSystem:   doc.SourceSystem(),
			Score:          m.Score(),
		})
	}

	tags := r.DomainsSearched()
	domains := make([]string, 0, len(tags))
	for _, t := range tags {
		domains = append(domains, string(t))
	}

	return QueryCompleted{
		ID:              r.ID(),
		Question:        r.Question(),
		Answer:          r.Answer(),
		Sources:         sources,
		DomainsSearched: domains,
		ElapsedSeconds:  r.ElapsedSeconds(),
		CompletedAt:     r.CompletedAt().UTC(),
	}
}
