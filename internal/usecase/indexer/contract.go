package indexer

import (
	"context"
	"time"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// Repository defines the storage contract for indexing cycles.
type Repository interface {
	// UpsertDocuments writes documents and returns how many landed. Partial
	// success is allowed; the error covers the failed remainder.
	UpsertDocuments(ctx context.Context, docs []domain.SearchDocument) (int, error)
	// DeleteStale removes documents of one project not touched since cutoff.
	DeleteStale(ctx context.Context, organization, project string, cutoff time.Time) (int, error)
}

// DocumentSource fetches raw upstream records normalized into documents.
type DocumentSource interface {
	FetchPullRequests(ctx context.Context, organization, project string) ([]domain.SearchDocument, error)
	FetchWorkItems(ctx context.Context, organization, project string, since time.Time) ([]domain.SearchDocument, error)
}
