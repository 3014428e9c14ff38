package domain

import "time"

// SearchFilters narrow the candidate set before ranking. All fields are
// optional and combine with AND semantics; list fields match any value (OR).
type SearchFilters struct {
	SourceType    SearchSource
	Organization  string
	Project       string
	RepoName      string
	Status        []string
	Priority      []int
	ItemType      []string
	Author        string
	AssignedTo    string
	IsDraft       *bool
	CreatedAfter  time.Time
	CreatedBefore time.Time
	UpdatedAfter  time.Time
}

// IsEmpty reports whether no filter is set.
func (f SearchFilters) IsEmpty() bool {
	return f.SourceType == "" && f.Organization == "" && f.Project == "" &&
		f.RepoName == "" && len(f.Status) == 0 && len(f.Priority) == 0 &&
		len(f.ItemType) == 0 && f.Author == "" && f.AssignedTo == "" &&
		f.IsDraft == nil && f.CreatedAfter.IsZero() && f.CreatedBefore.IsZero() &&
		f.UpdatedAfter.IsZero()
}

// ParsedQuery is the output of the query parser: structured filters plus the
// residual free text left after filter extraction.
type ParsedQuery struct {
	SearchText string
	Filters    SearchFilters
}
