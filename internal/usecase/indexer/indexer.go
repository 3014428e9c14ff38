package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/metrics"
)

const (
	defaultEmbedBatchSize = 64
	// defaultWorkItemWindow bounds the WIQL query so giant old projects do
	// not dominate every cycle. Stale documents age out via DeleteStale.
	defaultWorkItemWindow = 90 * 24 * time.Hour
)

// Config tunes one indexing cycle.
type Config struct {
	// StalenessGrace widens the delete cutoff below the cycle start time.
	// Zero means anything not refreshed in this cycle is stale.
	StalenessGrace time.Duration
	// EmbedBatchSize caps texts per embedding API call.
	EmbedBatchSize int
	// WorkItemWindow bounds how far back changed work items are fetched.
	WorkItemWindow time.Duration
}

// Service runs one sync cycle per project: fetch, embed, upsert, then
// sweep documents the cycle no longer saw upstream.
type Service struct {
	source DocumentSource
	repo   Repository
	embed  domain.Embedder // nil = index without vectors
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates an indexer. embed may be nil for lexical-only deployments.
func New(source DocumentSource, repo Repository, embed domain.Embedder, cfg Config, logger *zap.Logger) *Service {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = defaultEmbedBatchSize
	}
	if cfg.WorkItemWindow <= 0 {
		cfg.WorkItemWindow = defaultWorkItemWindow
	}
	return &Service{
		source: source,
		repo:   repo,
		embed:  embed,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// SyncProject runs one full cycle for one project. A fetch failure aborts
// the cycle (nothing to index, retried next tick); an embedding failure
// indexes the affected records without vectors, an upsert failure is
// recorded and the cycle continues. Cycles are idempotent: upsert is a
// full overwrite keyed by (source_type, source_id).
func (s *Service) SyncProject(ctx context.Context, organization, project string) (domain.SyncStats, error) {
	start := s.now().UTC()
	stats := domain.SyncStats{Organization: organization, Project: project}

	var prs, workItems []domain.SearchDocument

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := s.source.FetchPullRequests(gctx, organization, project)
		if err != nil {
			return fmt.Errorf("fetch pull requests: %w", err)
		}
		prs = docs
		return nil
	})
	g.Go(func() error {
		since := start.Add(-s.cfg.WorkItemWindow)
		docs, err := s.source.FetchWorkItems(gctx, organization, project, since)
		if err != nil {
			return fmt.Errorf("fetch work items: %w", err)
		}
		workItems = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		stats.AddError(err.Error())
		stats.Duration = s.now().UTC().Sub(start)
		s.observeCycle(&stats, "error")
		return stats, fmt.Errorf("sync %s/%s: %w", organization, project, err)
	}

	s.logger.Debug("Fetched upstream records",
		zap.String("organization", organization),
		zap.String("project", project),
		zap.Int("pull_requests", len(prs)),
		zap.Int("work_items", len(workItems)))

	prs = s.embedDocuments(ctx, prs, &stats)
	workItems = s.embedDocuments(ctx, workItems, &stats)

	stats.PullRequestsIndexed = s.upsert(ctx, prs, &stats)
	stats.WorkItemsIndexed = s.upsert(ctx, workItems, &stats)

	cutoff := start.Add(-s.cfg.StalenessGrace)
	deleted, err := s.repo.DeleteStale(ctx, organization, project, cutoff)
	stats.DocumentsDeleted = deleted
	if err != nil {
		stats.AddError(fmt.Sprintf("delete stale: %v", err))
	}

	stats.Duration = s.now().UTC().Sub(start)
	s.observeCycle(&stats, "ok")
	return stats, nil
}

// embedDocuments fills Embedding on each document in batches. A failed
// batch records one error and its documents go through without vectors:
// they stay touched and lexically searchable, and the next successful
// cycle backfills the embedding. Dropping them would let DeleteStale
// evict live documents over one provider hiccup.
func (s *Service) embedDocuments(ctx context.Context, docs []domain.SearchDocument, stats *domain.SyncStats) []domain.SearchDocument {
	if s.embed == nil || len(docs) == 0 {
		return docs
	}

	for start := 0; start < len(docs); start += s.cfg.EmbedBatchSize {
		end := min(start+s.cfg.EmbedBatchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].EmbeddingText()
		}

		res, err := domain.EmbedBatch(ctx, s.embed, texts)
		if err != nil {
			stats.AddError(fmt.Sprintf("embed batch [%d:%d]: %v", start, end, err))
			continue
		}
		for i := range batch {
			batch[i].Embedding = res.Embeddings[i]
		}
	}
	return docs
}

func (s *Service) upsert(ctx context.Context, docs []domain.SearchDocument, stats *domain.SyncStats) int {
	if len(docs) == 0 {
		return 0
	}
	written, err := s.repo.UpsertDocuments(ctx, docs)
	if err != nil {
		stats.AddError(err.Error())
	}
	return written
}

func (s *Service) observeCycle(stats *domain.SyncStats, status string) {
	metrics.SyncCyclesTotal.WithLabelValues(stats.Organization, stats.Project, status).Inc()
	metrics.SyncCycleDuration.WithLabelValues(stats.Organization, stats.Project).
		Observe(stats.Duration.Seconds())
	metrics.SyncDocumentsIndexed.WithLabelValues(stats.Organization, stats.Project, string(domain.SourcePullRequest)).
		Add(float64(stats.PullRequestsIndexed))
	metrics.SyncDocumentsIndexed.WithLabelValues(stats.Organization, stats.Project, string(domain.SourceWorkItem)).
		Add(float64(stats.WorkItemsIndexed))
	metrics.SyncDocumentsDeleted.WithLabelValues(stats.Organization, stats.Project).
		Add(float64(stats.DocumentsDeleted))
}
