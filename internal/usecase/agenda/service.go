// Package agenda serves the day view of a conference edition.
package agenda

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/confbase/confbase/internal/domain"
)

// Repository reads scheduled submissions by time window.
type Repository interface {
	Range(ctx context.Context, edition string, from, to time.Time) ([]domain.Submission, error)
}

// Service returns the talks of the 24 hours following a given start time.
type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Day returns the submissions starting within 24 hours of starttime,
// ordered by start time. An empty starttime yields an empty agenda.
func (s *Service) Day(ctx context.Context, edition, starttime string) ([]domain.Submission, error) {
	if starttime == "" {
		return []domain.Submission{}, nil
	}
	from, err := domain.ParseTime(starttime)
	if err != nil {
		return nil, fmt.Errorf("starttime %q: %w", starttime, domain.ErrBadRequest)
	}

	subs, err := s.repo.Range(ctx, edition, from, from.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("agenda %s: %w", edition, err)
	}

	sort.SliceStable(subs, func(i, j int) bool {
		ti, errI := domain.ParseTime(subs[i].Starttime)
		tj, errJ := domain.ParseTime(subs[j].Starttime)
		if errI != nil || errJ != nil {
			return subs[i].ID < subs[j].ID
		}
		if ti.Equal(tj) {
			return subs[i].ID < subs[j].ID
		}
		return ti.Before(tj)
	})
	return subs, nil
}
