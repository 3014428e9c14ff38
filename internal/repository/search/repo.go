package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/worklens/internal/db"
	"github.com/kailas-cloud/worklens/internal/domain"
	"github.com/kailas-cloud/worklens/internal/domain/filter"
)

// IndexName is the single FT index covering all search documents.
const IndexName = domain.KeyPrefix + "doc:idx"

const keyPrefix = domain.KeyPrefix + "doc:"

// stalePageSize bounds one SearchKeys/DelMulti round during staleness cleanup.
const stalePageSize = 500

const (
	defaultRRFK                = 60 // standard value from Cormack et al. 2009
	defaultCandidateMultiplier = 3
)

// store is the consumer interface for search documents (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) (int, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) (int, error)
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchKeys(ctx context.Context, index string, filters filter.Expression, limit int) ([]string, error)
	SearchSorted(ctx context.Context, q *db.SortedQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index string, filters filter.Expression) (int, error)
}

// Config tunes the ranking fusion.
type Config struct {
	// RRFK dampens the rank contribution in reciprocal rank fusion.
	RRFK int
	// CandidateMultiplier widens each ranking to limit*multiplier candidates
	// before fusion.
	CandidateMultiplier int
}

// Repo implements usecase search and indexer storage contracts over one
// Redis FT index.
type Repo struct {
	store store
	cfg   Config
	now   func() time.Time
}

// New creates a search document repository.
func New(s store, cfg Config) *Repo {
	if cfg.RRFK <= 0 {
		cfg.RRFK = defaultRRFK
	}
	if cfg.CandidateMultiplier <= 0 {
		cfg.CandidateMultiplier = defaultCandidateMultiplier
	}
	return &Repo{store: s, cfg: cfg, now: time.Now}
}

// EnsureIndex creates the FT index if it does not exist yet. dims is the
// embedding dimensionality; dims <= 0 omits the vector field entirely
// (lexical-only deployments).
func (r *Repo) EnsureIndex(ctx context.Context, dims int) error {
	exists, err := r.store.IndexExists(ctx, IndexName)
	if err != nil {
		return fmt.Errorf("check index %s: %w", IndexName, err)
	}
	if exists {
		return nil
	}

	builder := db.NewIndex(IndexName).
		Prefix(keyPrefix).
		Tag(fieldSourceType).
		Tag(fieldSourceID).
		Text(fieldTitle).
		Text(fieldDescription).
		Text(fieldContent).
		Tag(fieldOrganization).
		Tag(fieldProject).
		Tag(fieldRepo).
		Tag(fieldStatus).
		Tag(fieldPriority).
		Tag(fieldItemType).
		Tag(fieldIsDraft).
		Tag(fieldAuthorID).
		Tag(fieldAssignedID).
		Numeric(fieldExternalID).
		Numeric(fieldCreatedAt).
		Numeric(fieldUpdatedAt).
		Numeric(fieldTouchedAt)

	if dims > 0 {
		builder = builder.VectorHNSW(fieldVector, dims, db.DistanceCosine, 16, 200)
	}

	def, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build index definition: %w", err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w", IndexName, err)
	}
	return nil
}

// UpsertDocuments writes documents in one pipelined round trip and returns
// how many landed. Invalid documents are skipped and reported; a store
// failure on one document does not block the rest.
func (r *Repo) UpsertDocuments(ctx context.Context, docs []domain.SearchDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	touched := r.now().UTC()
	items := make([]db.HashSetItem, 0, len(docs))
	var errs []error

	for i := range docs {
		d := &docs[i]
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, db.HashSetItem{
			Key:    docKey(d.SourceType, d.SourceID),
			Fields: toHashFields(d, touched),
		})
	}

	written, err := r.store.HSetMulti(ctx, items)
	if err != nil {
		errs = append(errs, fmt.Errorf("upsert documents: %w", err))
	}

	return written, errors.Join(errs...)
}

// DeleteStale removes documents of one project whose touched_at predates
// cutoff, meaning the latest index pass no longer saw them upstream.
func (r *Repo) DeleteStale(ctx context.Context, organization, project string, cutoff time.Time) (int, error) {
	expr := filter.NewExpression()
	expr = andMatch(expr, fieldOrganization, organization)
	expr = andMatch(expr, fieldProject, project)
	expr = andRange(expr, fieldTouchedAt, filter.LT(float64(cutoff.Unix())))

	deleted := 0
	for {
		keys, err := r.store.SearchKeys(ctx, IndexName, expr, stalePageSize)
		if err != nil {
			return deleted, fmt.Errorf("find stale documents %s/%s: %w", organization, project, err)
		}
		if len(keys) == 0 {
			return deleted, nil
		}

		n, err := r.store.DelMulti(ctx, keys)
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("delete stale documents %s/%s: %w", organization, project, err)
		}
		if len(keys) < stalePageSize {
			return deleted, nil
		}
	}
}

// Search runs hybrid retrieval: a BM25 ranking over the text fields and a
// KNN ranking over the embedding, fused with RRF. With only one signal
// available it degrades to that single ranking; with neither it lists the
// filtered set by recency.
func (r *Repo) Search(
	ctx context.Context, text string, vector []float32,
	filters domain.SearchFilters, limit int,
) ([]domain.SearchResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidQuery)
	}

	expr := buildExpression(filters)

	if text == "" && len(vector) == 0 {
		return r.listRecent(ctx, expr, limit)
	}

	candidates := limit * r.cfg.CandidateMultiplier

	var lexical, semantic []candidate

	if text != "" {
		hits, err := r.searchLexical(ctx, text, expr, candidates)
		if err != nil {
			return nil, err
		}
		lexical = hits
	}

	if len(vector) > 0 {
		hits, err := r.searchSemantic(ctx, vector, expr, candidates)
		if err != nil {
			return nil, err
		}
		semantic = hits
	}

	var top []candidate
	switch {
	case len(lexical) > 0 && len(semantic) > 0:
		top = fuseRRF(lexical, semantic, r.cfg.RRFK, limit)
	case len(semantic) > 0:
		top = truncate(semantic, limit)
	default:
		top = truncate(lexical, limit)
	}

	results := make([]domain.SearchResult, 0, len(top))
	for _, c := range top {
		results = append(results, c.toResult())
	}
	return results, nil
}

// Get returns one document by its natural key, including the stored vector.
func (r *Repo) Get(ctx context.Context, sourceType domain.SearchSource, sourceID string) (*domain.SearchDocument, error) {
	key := docKey(sourceType, sourceID)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	doc := docFromHashFields(fields)
	return &doc, nil
}

// Delete removes one document by its natural key.
func (r *Repo) Delete(ctx context.Context, sourceType domain.SearchSource, sourceID string) error {
	key := docKey(sourceType, sourceID)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, filter.Expression{})
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (r *Repo) searchLexical(ctx context.Context, text string, expr filter.Expression, topK int) ([]candidate, error) {
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    IndexName,
		Query:        text,
		TextFields:   []string{fieldTitle, fieldDescription, fieldContent},
		Filters:      expr,
		TopK:         topK,
		ReturnFields: resultFields,
	})
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return toCandidates(sr), nil
}

func (r *Repo) searchSemantic(ctx context.Context, vector []float32, expr filter.Expression, topK int) ([]candidate, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    IndexName,
		Filters:      expr,
		Vector:       vector,
		K:            topK,
		ReturnFields: resultFields,
	})
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	return toCandidates(sr), nil
}

// listRecent handles filter-only queries: no ranking signal, order by recency.
func (r *Repo) listRecent(ctx context.Context, expr filter.Expression, limit int) ([]domain.SearchResult, error) {
	sr, err := r.store.SearchSorted(ctx, &db.SortedQuery{
		IndexName:    IndexName,
		Filters:      expr,
		SortBy:       fieldUpdatedAt,
		Descending:   true,
		Limit:        limit,
		ReturnFields: resultFields,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(sr.Entries))
	for _, c := range toCandidates(sr) {
		results = append(results, c.toResult())
	}
	return results, nil
}

func toCandidates(sr *db.SearchResult) []candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	out := make([]candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		out = append(out, candidate{
			key:    entry.Key,
			score:  entry.Score,
			fields: entry.Fields,
		})
	}
	return out
}

func truncate(cands []candidate, limit int) []candidate {
	if len(cands) > limit {
		return cands[:limit]
	}
	return cands
}
