package db

// TagFilter restricts a search to documents whose TAG field equals Value.
type TagFilter struct {
	Field string
	Value string
}

// KNNQuery is the input for vector similarity search. All Filters must hold.
type KNNQuery struct {
	IndexName    string
	Filters      []TagFilter
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
