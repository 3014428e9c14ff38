package db

import "github.com/kailas-cloud/worklens/internal/domain/filter"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search over one or more TEXT fields.
type TextQuery struct {
	IndexName    string
	Query        string
	TextFields   []string // fields to match, OR-ed; empty = all TEXT fields
	Filters      filter.Expression
	TopK         int
	ReturnFields []string
}

// SortedQuery is the input for a filter-only listing ordered by a numeric field.
type SortedQuery struct {
	IndexName    string
	Filters      filter.Expression
	SortBy       string
	Descending   bool
	Limit        int
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
