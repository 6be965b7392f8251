package chi

import (
	"github.com/kailas-cloud/carequery/internal/domain/answer"
	domusage "github.com/kailas-cloud/carequery/internal/domain/usage"
	"github.com/kailas-cloud/carequery/internal/usecase/query"
)

type queryRequest struct {
	Question             string `json:"question"`
	TopK                 *int   `json:"top_k,omitempty"`
	DomainFilter         string `json:"domain_filter,omitempty"`
	SourceTypeFilter     string `json:"source_type_filter,omitempty"`
	ClassificationFilter string `json:"classification_filter,omitempty"`
}

type sourceResponse struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Domain string  `json:"domain"`
	Source string  `json:"source"`
}

type queryResponse struct {
	Question         string           `json:"question"`
	Answer           string           `json:"answer"`
	Sources          []sourceResponse `json:"sources"`
	DomainsSearched  []string         `json:"domains_searched"`
	QueryTimeSeconds float64          `json:"query_time_seconds"`
}

type exampleQueriesResponse struct {
	Queries []string `json:"queries"`
}

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks"`
	VectorCount *int64            `json:"vector_count,omitempty"`
}

type statsResponse struct {
	TotalVectorCount int64  `json:"total_vector_count"`
	Dimension        int    `json:"dimension"`
	Index            string `json:"index"`
	Driver           string `json:"driver"`
}

type domainsResponse struct {
	Domains         []string `json:"domains"`
	SourceTypes     []string `json:"source_types"`
	Classifications []string `json:"classifications"`
}

type sourceInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Domain         string `json:"domain"`
	SourceType     string `json:"source_type"`
	Classification string `json:"classification"`
	Filepath       string `json:"filepath"`
	FileFormat     string `json:"file_format"`
}

type sourcesResponse struct {
	Sources []sourceInfo `json:"sources"`
}

type usageReport struct {
	Provider    string `json:"provider"`
	Period      string `json:"period"`
	PeriodStart int64  `json:"period_start"`
	PeriodEnd   int64  `json:"period_end"`
	TokensUsed  int64  `json:"tokens_used"`
	TokensLimit int64  `json:"tokens_limit"`
	Remaining   int64  `json:"tokens_remaining"`
	Exhausted   bool   `json:"is_exhausted"`
}

type usageResponse struct {
	Period  string        `json:"period"`
	Reports []usageReport `json:"reports"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Stage   string `json:"stage,omitempty"`
}

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest            = "bad_request"
	codeValidation            = "validation_error"
	codeUnauthorized          = "unauthorized"
	codeRateLimited           = "rate_limited"
	codeQuotaExceeded         = "quota_exceeded"
	codeSearchUnavailable     = "search_unavailable"
	codeGenerationUnavailable = "generation_unavailable"
	codeRequestCancelled      = "request_cancelled"
	codeInternal              = "internal_error"
)

func queryToResponse(r answer.Result) queryResponse {
	matches := r.Sources()
	sources := make([]sourceResponse, len(matches))
	for i, m := range matches {
		doc := m.Document()
		sources[i] = sourceResponse{
			ID:     doc.ID(),
			Score:  m.Score(),
			Domain: string(doc.Domain()),
			Source: doc.SourceSystem(),
		}
	}
	tags := r.DomainsSearched()
	domains := make([]string, len(tags))
	for i, t := range tags {
		domains[i] = string(t)
	}
	return queryResponse{
		Question:         r.Question(),
		Answer:           r.Answer(),
		Sources:          sources,
		DomainsSearched:  domains,
		QueryTimeSeconds: query.FormatElapsed(r.Elapsed()),
	}
}

func usageToResponse(reports []domusage.Report) []usageReport {
	out := make([]usageReport, len(reports))
	for i, r := range reports {
		out[i] = usageReport{
			Provider:    r.Provider(),
			Period:      string(r.Period()),
			PeriodStart: r.PeriodStart(),
			PeriodEnd:   r.PeriodEnd(),
			TokensUsed:  r.Used(),
			TokensLimit: r.Limit(),
			Remaining:   r.Remaining(),
			Exhausted:   r.Exhausted(),
		}
	}
	return out
}
