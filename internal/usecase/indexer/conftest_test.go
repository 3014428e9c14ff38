package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/worklens/internal/domain"
)

type mockSource struct {
	fetchPullRequestsFn func(ctx context.Context, organization, project string) ([]domain.SearchDocument, error)
	fetchWorkItemsFn    func(ctx context.Context, organization, project string, since time.Time) ([]domain.SearchDocument, error)
}

func (m *mockSource) FetchPullRequests(ctx context.Context, organization, project string) ([]domain.SearchDocument, error) {
	return m.fetchPullRequestsFn(ctx, organization, project)
}

func (m *mockSource) FetchWorkItems(ctx context.Context, organization, project string, since time.Time) ([]domain.SearchDocument, error) {
	return m.fetchWorkItemsFn(ctx, organization, project, since)
}

type mockRepo struct {
	upsertFn      func(ctx context.Context, docs []domain.SearchDocument) (int, error)
	deleteStaleFn func(ctx context.Context, organization, project string, cutoff time.Time) (int, error)
}

func (m *mockRepo) UpsertDocuments(ctx context.Context, docs []domain.SearchDocument) (int, error) {
	return m.upsertFn(ctx, docs)
}

func (m *mockRepo) DeleteStale(ctx context.Context, organization, project string, cutoff time.Time) (int, error) {
	return m.deleteStaleFn(ctx, organization, project, cutoff)
}

type mockEmbedder struct {
	batchEmbedFn func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}, nil
}

func (m *mockEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	return m.batchEmbedFn(ctx, texts)
}

func (m *mockEmbedder) Dimensions() int { return 2 }

var cycleStart = time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

func newTestService(source *mockSource, repo *mockRepo, embed domain.Embedder, cfg Config) *Service {
	svc := New(source, repo, embed, cfg, zap.NewNop())
	svc.now = func() time.Time { return cycleStart }
	return svc
}

func prDoc(n int) domain.SearchDocument {
	return domain.SearchDocument{
		SourceType:   domain.SourcePullRequest,
		SourceID:     fmt.Sprintf("contoso/Checkout/payments/%d", n),
		ExternalID:   n,
		Title:        fmt.Sprintf("PR %d", n),
		Organization: "contoso",
		Project:      "Checkout",
		RepoName:     "payments",
		UpdatedAt:    cycleStart.Add(-time.Hour),
	}
}

func wiDoc(n int) domain.SearchDocument {
	return domain.SearchDocument{
		SourceType:   domain.SourceWorkItem,
		SourceID:     fmt.Sprintf("contoso/Checkout/%d", n),
		ExternalID:   n,
		Title:        fmt.Sprintf("Work item %d", n),
		Organization: "contoso",
		Project:      "Checkout",
		UpdatedAt:    cycleStart.Add(-time.Hour),
	}
}

func prDocs(ns ...int) []domain.SearchDocument {
	docs := make([]domain.SearchDocument, 0, len(ns))
	for _, n := range ns {
		docs = append(docs, prDoc(n))
	}
	return docs
}

func wiDocs(ns ...int) []domain.SearchDocument {
	docs := make([]domain.SearchDocument, 0, len(ns))
	for _, n := range ns {
		docs = append(docs, wiDoc(n))
	}
	return docs
}

func countingRepo() (*mockRepo, *repoCalls) {
	calls := &repoCalls{}
	repo := &mockRepo{
		upsertFn: func(_ context.Context, docs []domain.SearchDocument) (int, error) {
			calls.upserts = append(calls.upserts, docs)
			return len(docs), nil
		},
		deleteStaleFn: func(_ context.Context, _, _ string, cutoff time.Time) (int, error) {
			calls.cutoffs = append(calls.cutoffs, cutoff)
			return calls.staleCount, nil
		},
	}
	return repo, calls
}

type repoCalls struct {
	upserts    [][]domain.SearchDocument
	cutoffs    []time.Time
	staleCount int
}
