package worklens

import (
	"context"
	"time"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// Source is the origin record type of an indexed document.
type Source string

const (
	// SourcePullRequest marks documents built from pull requests.
	SourcePullRequest Source = "pull_request"
	// SourceWorkItem marks documents built from work items.
	SourceWorkItem Source = "work_item"
)

// Document is an indexable record. (Source, SourceID) is the natural key:
// indexing the same key again overwrites all fields.
type Document struct {
	Source     Source
	SourceID   string
	ExternalID int

	Title       string
	Description string
	Content     string

	Organization string
	Project      string
	RepoName     string

	Status   string
	Priority int
	ItemType string
	IsDraft  bool

	AuthorID       string
	AuthorName     string
	AssignedToID   string
	AssignedToName string

	CreatedAt time.Time
	UpdatedAt time.Time
	ClosedAt  time.Time

	ParentID        string
	LinkedWorkItems []string
	URL             string
}

// Result is one search hit. Score is only meaningful for relative
// ordering within a single query.
type Result struct {
	Source     Source
	SourceID   string
	ExternalID int

	Title       string
	Description string
	Status      string
	Priority    int
	ItemType    string
	AuthorName  string
	URL         string

	CreatedAt time.Time
	UpdatedAt time.Time

	Score float64
}

// Embedding carries a vector and token usage for one embedded text.
type Embedding struct {
	Vector       []float32
	PromptTokens int
	TotalTokens  int
}

// Embedder vectorizes text for semantic ranking. Implementations must be
// safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) (Embedding, error)
	Dimensions() int
}

func toDomainDocument(d Document) domain.SearchDocument {
	return domain.SearchDocument{
		SourceType:      domain.SearchSource(d.Source),
		SourceID:        d.SourceID,
		ExternalID:      d.ExternalID,
		Title:           d.Title,
		Description:     d.Description,
		Content:         d.Content,
		Organization:    d.Organization,
		Project:         d.Project,
		RepoName:        d.RepoName,
		Status:          d.Status,
		Priority:        d.Priority,
		ItemType:        d.ItemType,
		IsDraft:         d.IsDraft,
		AuthorID:        d.AuthorID,
		AuthorName:      d.AuthorName,
		AssignedToID:    d.AssignedToID,
		AssignedToName:  d.AssignedToName,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ClosedAt:        d.ClosedAt,
		ParentID:        d.ParentID,
		LinkedWorkItems: d.LinkedWorkItems,
		URL:             d.URL,
	}
}

func fromDomainDocument(d domain.SearchDocument) Document {
	return Document{
		Source:          Source(d.SourceType),
		SourceID:        d.SourceID,
		ExternalID:      d.ExternalID,
		Title:           d.Title,
		Description:     d.Description,
		Content:         d.Content,
		Organization:    d.Organization,
		Project:         d.Project,
		RepoName:        d.RepoName,
		Status:          d.Status,
		Priority:        d.Priority,
		ItemType:        d.ItemType,
		IsDraft:         d.IsDraft,
		AuthorID:        d.AuthorID,
		AuthorName:      d.AuthorName,
		AssignedToID:    d.AssignedToID,
		AssignedToName:  d.AssignedToName,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		ClosedAt:        d.ClosedAt,
		ParentID:        d.ParentID,
		LinkedWorkItems: d.LinkedWorkItems,
		URL:             d.URL,
	}
}

func fromDomainResults(results []domain.SearchResult) []Result {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			Source:      Source(r.SourceType),
			SourceID:    r.SourceID,
			ExternalID:  r.ExternalID,
			Title:       r.Title,
			Description: r.Description,
			Status:      r.Status,
			Priority:    r.Priority,
			ItemType:    r.ItemType,
			AuthorName:  r.AuthorName,
			URL:         r.URL,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			Score:       r.Score,
		}
	}
	return out
}
