// Package affiliation serves institution-name autocomplete.
package affiliation

import "context"

const defaultResults = 10

// Repository searches affiliation names by relevance.
type Repository interface {
	Search(ctx context.Context, q string, n int) ([]string, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Query returns matching institution names. An empty query returns an empty
// list without touching the index.
func (s *Service) Query(ctx context.Context, q string, n int) ([]string, error) {
	if q == "" {
		return []string{}, nil
	}
	if n <= 0 {
		n = defaultResults
	}
	return s.repo.Search(ctx, q, n)
}
