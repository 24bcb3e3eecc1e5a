// Package profile manages user profile documents.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/confbase/confbase/internal/domain"
)

// Repository defines the storage contract for profiles.
type Repository interface {
	Get(ctx context.Context, userID string) (domain.Profile, error)
	Set(ctx context.Context, userID string, payload domain.Profile) error
	Update(ctx context.Context, userID string, update domain.Profile) error
}

// Service handles profile reads and writes keyed by the token identity.
type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored profile of a user. A user without a profile gets an
// empty document, not an error.
func (s *Service) Get(ctx context.Context, userID string) (domain.Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Create stores the payload as the user's profile, replacing any previous one.
func (s *Service) Create(ctx context.Context, userID string, payload domain.Profile) error {
	if payload == nil {
		return fmt.Errorf("empty payload: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Set(ctx, userID, payload); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// Update merges the given top-level fields into the user's profile.
func (s *Service) Update(ctx context.Context, userID string, update domain.Profile) error {
	if update == nil {
		return fmt.Errorf("empty payload: %w", domain.ErrBadRequest)
	}
	if err := s.repo.Update(ctx, userID, update); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// Migrate will move a profile from a previous edition onto the current one.
// Not implemented yet, mirrored by a 501 in transport.
func (s *Service) Migrate(ctx context.Context, userID string) error {
	return domain.ErrNotImplemented
}
