package domain

import (
	"fmt"
	"time"
)

// SearchSource is the closed set of upstream record types.
type SearchSource string

const (
	// SourcePullRequest marks documents built from pull requests.
	SourcePullRequest SearchSource = "pull_request"
	// SourceWorkItem marks documents built from work items.
	SourceWorkItem SearchSource = "work_item"
)

// Valid reports whether s is a known source type.
func (s SearchSource) Valid() bool {
	return s == SourcePullRequest || s == SourceWorkItem
}

// SearchDocument is the write-side record kept in the search store.
// (SourceType, SourceID) is the natural key: re-indexing the same key
// overwrites all fields.
type SearchDocument struct {
	SourceType SearchSource
	SourceID   string // globally unique per source, e.g. "org/project/repo/123"
	ExternalID int    // upstream numeric id

	Title       string
	Description string
	Content     string // comments + commit messages, widens recall beyond title/description

	Organization string
	Project      string
	RepoName     string

	Status   string
	Priority int // 0 = unset
	ItemType string
	IsDraft  bool

	AuthorID       string
	AuthorName     string
	AssignedToID   string
	AssignedToName string

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  time.Time // zero = still open

	ParentID        string
	LinkedWorkItems []string
	URL             string

	Embedding []float32 // nil when no embedder is configured or embedding failed
}

// Validate checks the fields the natural key and staleness logic depend on.
func (d *SearchDocument) Validate() error {
	if !d.SourceType.Valid() {
		return fmt.Errorf("%w: unknown source type %q", ErrInvalidDocument, d.SourceType)
	}
	if d.SourceID == "" {
		return fmt.Errorf("%w: empty source id", ErrInvalidDocument)
	}
	if d.Organization == "" || d.Project == "" {
		return fmt.Errorf("%w: %s missing provenance", ErrInvalidDocument, d.SourceID)
	}
	if d.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: %s missing updated_at", ErrInvalidDocument, d.SourceID)
	}
	return nil
}

// EmbeddingText is the corpus sent to the embedder for this document.
func (d *SearchDocument) EmbeddingText() string {
	text := d.Title
	if d.Description != "" {
		text += "\n" + d.Description
	}
	if d.Content != "" {
		text += "\n" + d.Content
	}
	return text
}

// SearchResult is the read-side projection returned to callers.
// Score is only meaningful for relative ordering within one query.
type SearchResult struct {
	SourceType SearchSource `json:"source_type"`
	SourceID   string       `json:"source_id"`
	ExternalID int          `json:"external_id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	ItemType    string `json:"item_type,omitempty"`
	AuthorName  string `json:"author_name,omitempty"`
	URL         string `json:"url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Score float64 `json:"score"`
}
