package search

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/kailas-cloud/worklens/internal/db"
	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/domain/filter"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hSetMultiFn   func(ctx context.Context, items []db.HashSetItem) (int, error)
	hGetAllFn     func(ctx context.Context, key string) (map[string]string, error)
	delFn         func(ctx context.Context, key string) error
	delMultiFn    func(ctx context.Context, keys []string) (int, error)
	existsFn      func(ctx context.Context, key string) (bool, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	searchKNNFn   func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	searchBM25Fn  func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	searchKeysFn  func(ctx context.Context, index string, filters filter.Expression, limit int) ([]string, error)
	searchSortFn  func(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error)
	searchCountFn func(ctx context.Context, index string, filters filter.Expression) (int, error)
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) (int, error) {
	if m.hSetMultiFn != nil {
		return m.hSetMultiFn(ctx, items)
	}
	return len(items), nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hGetAllFn != nil {
		return m.hGetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func (m *mockStore) DelMulti(ctx context.Context, keys []string) (int, error) {
	if m.delMultiFn != nil {
		return m.delMultiFn(ctx, keys)
	}
	return len(keys), nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if m.searchKNNFn != nil {
		return m.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchBM25Fn != nil {
		return m.searchBM25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchKeys(ctx context.Context, index string, filters filter.Expression, limit int) ([]string, error) {
	if m.searchKeysFn != nil {
		return m.searchKeysFn(ctx, index, filters, limit)
	}
	return nil, nil
}

func (m *mockStore) SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error) {
	if m.searchSortFn != nil {
		return m.searchSortFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error) {
	if m.searchCountFn != nil {
		return m.searchCountFn(ctx, index, filters)
	}
	return 0, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := New(ms, Config{})
	repo.now = func() time.Time {
		return time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	}
	return repo, ms
}

func testDoc(sourceID string) domain.SearchDocument {
	return domain.SearchDocument{
		SourceType:   domain.SourcePullRequest,
		SourceID:     sourceID,
		ExternalID:   101,
		Title:        "Fix token refresh",
		Organization: "contoso",
		Project:      "Checkout",
		RepoName:     "payments",
		Status:       "active",
		AuthorID:     "u1",
		AuthorName:   "Dana",
		CreatedAt:    time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
		URL:          "https://dev.example.com/pr/101",
	}
}

// hit builds a ranked search entry carrying the fields fusion needs.
func hit(sourceID string, score float64, updatedAt time.Time) db.SearchEntry {
	return db.SearchEntry{
		Key:   keyPrefix + "pull_request:" + sourceID,
		Score: score,
		Fields: map[string]string{
			fieldSourceType: "pull_request",
			fieldSourceID:   sourceID,
			fieldTitle:      "doc " + sourceID,
			fieldUpdatedAt:  strconv.FormatInt(updatedAt.Unix(), 10),
		},
	}
}

func hits(entries ...db.SearchEntry) *db.SearchResult {
	return &db.SearchResult{Total: len(entries), Entries: entries}
}
