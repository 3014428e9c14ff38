package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/worklens/internal/domain"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service answers search queries: parse filters out of the raw text, embed
// the residual text when an embedder is configured, then run hybrid
// retrieval in the repository.
type Service struct {
	repo   Repository
	parser QueryParser
	embed  domain.Embedder // nil = lexical-only deployment
	logger *zap.Logger
}

// New creates a search service. embed may be nil, which disables the
// semantic ranking entirely.
func New(repo Repository, parser QueryParser, embed domain.Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, parser: parser, embed: embed, logger: logger}
}

// Search runs one query. limit <= 0 falls back to the default page size;
// oversized limits clamp to the maximum.
func (s *Service) Search(ctx context.Context, rawQuery string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	parsed := s.parser.Parse(rawQuery)

	var vector []float32
	if s.embed != nil && parsed.SearchText != "" {
		res, err := s.embed.Embed(ctx, parsed.SearchText)
		if err != nil {
			// a configured embedder that fails mid-query fails the query;
			// lexical-only is a deployment choice (nil embed), not a fallback
			return nil, fmt.Errorf("embed query: %w", err)
		}
		vector = res.Embedding
	}

	results, err := s.repo.Search(ctx, parsed.SearchText, vector, parsed.Filters, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return results, nil
}
