package search

import (
	"context"

	"github.com/kailas-cloud/worklens/internal/domain"
)

// Repository defines the storage contract for hybrid search.
type Repository interface {
	Search(
		ctx context.Context, text string, vector []float32,
		filters domain.SearchFilters, limit int,
	) ([]domain.SearchResult, error)
}

// QueryParser extracts structured filters from free text.
type QueryParser interface {
	Parse(text string) domain.ParsedQuery
}
