// Package submission stores talk abstracts in the search store, one FT index
// per conference edition.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/confbase/confbase/internal/db"
	"github.com/confbase/confbase/internal/domain"
)

// returnFields lists the hash fields fetched back from FT.SEARCH.
var returnFields = []string{
	"title", "abstract", "fullname", "coauthors", "institution",
	"talk_format", "arxiv", "available_dt", "starttime", "endtime", "url", "track",
}

// store is the consumer interface for submissions (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the submission storage contract over the search store.
type Repo struct {
	store      store
	maxResults int
}

// New creates a submission repository. maxResults bounds how many hits a
// single full-text query may return.
func New(s store, maxResults int) *Repo {
	if maxResults <= 0 {
		maxResults = 1000
	}
	return &Repo{store: s, maxResults: maxResults}
}

// EnsureIndex creates the per-edition FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, edition string) error {
	name := IndexName(edition)
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("probe index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:        name,
		StorageType: db.StorageHash,
		Prefixes:    []string{keyPrefix(edition)},
		Fields: []db.IndexField{
			{Name: "title", Type: db.IndexFieldText},
			{Name: "abstract", Type: db.IndexFieldText},
			{Name: "fullname", Type: db.IndexFieldText},
			{Name: "institution", Type: db.IndexFieldText},
			{Name: "track", Type: db.IndexFieldTag},
			{Name: "talk_format", Type: db.IndexFieldTag},
			{Name: "starttime_ts", Type: db.IndexFieldNumeric, Sortable: true},
			{Name: "endtime_ts", Type: db.IndexFieldNumeric, Sortable: true},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// RebuildIndex drops and recreates the per-edition FT index. A missing index
// is not an error: a load into a fresh store rebuilds from nothing.
func (r *Repo) RebuildIndex(ctx context.Context, edition string) error {
	name := IndexName(edition)
	if err := r.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return r.EnsureIndex(ctx, edition)
}

// Put stores one submission.
func (r *Repo) Put(ctx context.Context, edition string, sub *domain.Submission) error {
	if err := r.store.HSet(ctx, docKey(edition, sub.ID), buildHashFields(sub)); err != nil {
		return fmt.Errorf("store submission %s: %w", sub.ID, err)
	}
	return nil
}

// PutMulti stores a batch of submissions in one round-trip.
func (r *Repo) PutMulti(ctx context.Context, edition string, subs []domain.Submission) error {
	items := make([]db.HashSetItem, len(subs))
	for i := range subs {
		items[i] = db.HashSetItem{
			Key:    docKey(edition, subs[i].ID),
			Fields: buildHashFields(&subs[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("store %d submissions: %w", len(subs), err)
	}
	return nil
}

// Get returns one submission by ID, or ErrSubmissionNotFound.
func (r *Repo) Get(ctx context.Context, edition, id string) (domain.Submission, error) {
	m, err := r.store.HGetAll(ctx, docKey(edition, id))
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission %s: %w", id, err)
	}
	if len(m) == 0 {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return parseHashFields(id, m), nil
}

// GetMulti returns submissions for the given IDs, skipping missing ones.
func (r *Repo) GetMulti(ctx context.Context, edition string, ids []string) ([]domain.Submission, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(edition, id)
	}
	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get %d submissions: %w", len(ids), err)
	}

	subs := make([]domain.Submission, 0, len(ids))
	for i, m := range maps {
		if len(m) == 0 {
			continue
		}
		subs = append(subs, parseHashFields(ids[i], m))
	}
	return subs, nil
}

// Search runs a BM25 query over title/abstract/fullname and returns hits in
// relevance order.
func (r *Repo) Search(ctx context.Context, edition, query string) ([]domain.Submission, error) {
	result, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    IndexName(edition),
		Query:        query,
		TopK:         r.maxResults,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", edition, err)
	}
	return r.entriesToSubmissions(edition, result), nil
}

// List returns all submissions of an edition, paged by offset/limit.
func (r *Repo) List(ctx context.Context, edition string, offset, limit int) ([]domain.Submission, error) {
	result, err := r.store.SearchList(ctx, IndexName(edition), "*", offset, limit, returnFields)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", edition, err)
	}
	return r.entriesToSubmissions(edition, result), nil
}

// Range returns submissions whose starttime falls inside [from, to).
func (r *Repo) Range(ctx context.Context, edition string, from, to time.Time) ([]domain.Submission, error) {
	query := fmt.Sprintf("@starttime_ts:[%d (%d]", from.Unix(), to.Unix())
	result, err := r.store.SearchList(ctx, IndexName(edition), query, 0, r.maxResults, returnFields)
	if err != nil {
		return nil, fmt.Errorf("agenda range %s: %w", edition, err)
	}
	return r.entriesToSubmissions(edition, result), nil
}

// Count returns the number of submissions in an edition.
func (r *Repo) Count(ctx context.Context, edition string) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName(edition), "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", edition, err)
	}
	return n, nil
}

func (r *Repo) entriesToSubmissions(edition string, result *db.SearchResult) []domain.Submission {
	if result == nil || len(result.Entries) == 0 {
		return nil
	}
	subs := make([]domain.Submission, 0, len(result.Entries))
	for _, entry := range result.Entries {
		id := strings.TrimPrefix(entry.Key, keyPrefix(edition))
		subs = append(subs, parseHashFields(id, entry.Fields))
	}
	return subs
}

// IndexName returns the FT index name of an edition.
func IndexName(edition string) string {
	return "agenda-" + edition
}

func keyPrefix(edition string) string {
	return "confbase:agenda:" + edition + ":"
}

func docKey(edition, id string) string {
	return keyPrefix(edition) + id
}
