// Package worklens is an embeddable hybrid search client for pull
// requests and work items backed by Redis. It wires the same storage
// and ranking stack the worklens service runs, without the HTTP layer,
// for hosts that link the search subsystem in-process.
package worklens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/worklens/internal/db"
	dbRedis "github.com/kailas-cloud/worklens/internal/db/redis"
	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/domain/query"
	searchrepo "github.com/kailas-cloud/worklens/internal/repository/search"
	searchuc "github.com/kailas-cloud/worklens/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the worklens SDK entry point.
type Client struct {
	store     db.Store
	repo      *searchrepo.Repo
	searchSvc *searchuc.Service
	embedder  domain.Embedder // nil = lexical-only
}

// New creates a worklens Client, connects to Redis and ensures the
// search index exists.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("worklens: database address required (use WithRedis)")
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("worklens: create store: %w", err)
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("worklens: database not ready: %w", err)
	}

	// Pass nil interface (not typed nil pointer!) when no embedder is
	// configured. Go gotcha: a typed nil wrapped in an interface != nil.
	var embedder domain.Embedder
	dims := 0
	if cfg.embedder != nil {
		embedder = &embedderAdapter{inner: cfg.embedder}
		dims = cfg.embedder.Dimensions()
	}

	repo := searchrepo.New(store, searchrepo.Config{
		RRFK:                cfg.rrfK,
		CandidateMultiplier: cfg.candidateMultiplier,
	})
	if err := repo.EnsureIndex(ctx, dims); err != nil {
		store.Close()
		return nil, fmt.Errorf("worklens: ensure index: %w", err)
	}

	parser := query.New(cfg.projectAliases)

	return &Client{
		store:     store,
		repo:      repo,
		searchSvc: searchuc.New(repo, parser, embedder, zap.NewNop()),
		embedder:  embedder,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs a hybrid query. Filter tokens in the text ("p1", "bugs",
// "last week", project names) are extracted before ranking. limit <= 0
// uses the default page size.
func (c *Client) Search(ctx context.Context, text string, limit int) ([]Result, error) {
	results, err := c.searchSvc.Search(ctx, text, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromDomainResults(results), nil
}

// Index embeds (when an embedder is configured) and upserts documents.
// Returns the number written; invalid documents are skipped and
// reported in the joined error.
func (c *Client) Index(ctx context.Context, docs []Document) (int, error) {
	domDocs := make([]domain.SearchDocument, len(docs))
	for i, d := range docs {
		domDocs[i] = toDomainDocument(d)
	}

	if c.embedder != nil && len(domDocs) > 0 {
		texts := make([]string, len(domDocs))
		for i := range domDocs {
			texts[i] = domDocs[i].EmbeddingText()
		}
		res, err := domain.EmbedBatch(ctx, c.embedder, texts)
		if err != nil {
			return 0, fmt.Errorf("index: %w", err)
		}
		for i := range domDocs {
			domDocs[i].Embedding = res.Embeddings[i]
		}
	}

	written, err := c.repo.UpsertDocuments(ctx, domDocs)
	if err != nil {
		return written, fmt.Errorf("index: %w", err)
	}
	return written, nil
}

// Get retrieves one indexed document by its natural key.
func (c *Client) Get(ctx context.Context, source Source, sourceID string) (Document, error) {
	doc, err := c.repo.Get(ctx, domain.SearchSource(source), sourceID)
	if err != nil {
		return Document{}, fmt.Errorf("get: %w", err)
	}
	return fromDomainDocument(*doc), nil
}

// Remove deletes one indexed document by its natural key.
func (c *Client) Remove(ctx context.Context, source Source, sourceID string) error {
	if err := c.repo.Delete(ctx, domain.SearchSource(source), sourceID); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// RemoveStale deletes documents of one project not re-indexed since
// cutoff. Returns the number deleted.
func (c *Client) RemoveStale(ctx context.Context, organization, project string, cutoff time.Time) (int, error) {
	n, err := c.repo.DeleteStale(ctx, organization, project, cutoff)
	if err != nil {
		return n, fmt.Errorf("remove stale: %w", err)
	}
	return n, nil
}

// Count returns the number of indexed documents.
func (c *Client) Count(ctx context.Context) (int, error) {
	n, err := c.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// embedderAdapter wraps the public Embedder to satisfy domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Embedding:    r.Vector,
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}

func (a *embedderAdapter) Dimensions() int {
	return a.inner.Dimensions()
}
