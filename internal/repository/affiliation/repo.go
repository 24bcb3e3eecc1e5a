// Package affiliation queries the GRID-style institution index used for
// profile autocomplete.
package affiliation

import (
	"context"
	"fmt"

	"github.com/confbase/confbase/internal/db"
)

type store interface {
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo searches affiliation names by relevance.
type Repo struct {
	store store
	index string
}

func New(s store, index string) *Repo {
	return &Repo{store: s, index: index}
}

// Search returns up to n institution names matching q, best first.
func (r *Repo) Search(ctx context.Context, q string, n int) ([]string, error) {
	result, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.index,
		Query:        q,
		TopK:         n,
		ReturnFields: []string{"name"},
	})
	if err != nil {
		return nil, fmt.Errorf("search affiliations: %w", err)
	}

	names := make([]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		if name := entry.Fields["name"]; name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
