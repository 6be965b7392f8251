package client

// QueryRequest is the POST /api/query body. Empty filters are omitted.
type QueryRequest struct {
	Question       string `json:"question"`
	TopK           *int   `json:"top_k,omitempty"`
	Domain         string `json:"domain_filter,omitempty"`
	SourceType     string `json:"source_type_filter,omitempty"`
	Classification string `json:"classification_filter,omitempty"`
}

// Source is one cited document, in citation order.
type Source struct {
	ID     string  `json:"id"`
	Score  float64 `json:"score"`
	Domain string  `json:"domain"`
	Source string  `json:"source"`
}

// QueryResponse is a grounded answer with its sources.
type QueryResponse struct {
	Question         string   `json:"question"`
	Answer           string   `json:"answer"`
	Sources          []Source `json:"sources"`
	DomainsSearched  []string `json:"domains_searched"`
	QueryTimeSeconds float64  `json:"query_time_seconds"`
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status      string            `json:"status"` // "ok", "degraded"
	Checks      map[string]string `json:"checks"`
	VectorCount *int64            `json:"vector_count,omitempty"`
}

// Stats describes the vector index.
type Stats struct {
	TotalVectorCount int64  `json:"total_vector_count"`
	Dimension        int    `json:"dimension"`
	Index            string `json:"index"`
	Driver           string `json:"driver"`
}

// Taxonomy lists the accepted filter values.
type Taxonomy struct {
	Domains         []string `json:"domains"`
	SourceTypes     []string `json:"source_types"`
	Classifications []string `json:"classifications"`
}

// DataSource describes one upstream feed of the corpus.
type DataSource struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Domain         string `json:"domain"`
	SourceType     string `json:"source_type"`
	Classification string `json:"classification"`
	Filepath       string `json:"filepath"`
	FileFormat     string `json:"file_format"`
}

type dataSources struct {
	Sources []DataSource `json:"sources"`
}

type exampleQueries struct {
	Queries []string `json:"queries"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
	Stage   string `json:"stage"`
}
