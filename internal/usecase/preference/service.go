// Package preference manages like/dislike votes on talk submissions.
package preference

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/confbase/confbase/internal/domain"
)

// Vote actions accepted by Update.
const (
	ActionLike    = "like"
	ActionDislike = "dislike"
)

// Repository defines the storage contract for votes.
type Repository interface {
	Like(ctx context.Context, userID, edition, submissionID string) error
	Dislike(ctx context.Context, userID, edition, submissionID string) error
	ByEdition(ctx context.Context, userID, edition string) ([]string, error)
	All(ctx context.Context, userID string) (domain.Preference, error)
}

// SubmissionReader hydrates vote IDs into full submissions.
type SubmissionReader interface {
	GetMulti(ctx context.Context, edition string, ids []string) ([]domain.Submission, error)
}

// Service coordinates vote updates and hydrated vote listings.
type Service struct {
	repo Repository
	subs SubmissionReader
}

func New(repo Repository, subs SubmissionReader) *Service {
	return &Service{repo: repo, subs: subs}
}

// Update applies a like or dislike vote. Any other action is rejected with
// ErrBadAction; a dislike for a user without any votes yields
// ErrPreferenceNotFound.
func (s *Service) Update(ctx context.Context, userID, edition, submissionID, action string) error {
	switch action {
	case ActionLike:
		if err := s.repo.Like(ctx, userID, edition, submissionID); err != nil {
			return fmt.Errorf("like %s: %w", submissionID, err)
		}
		return nil
	case ActionDislike:
		if err := s.repo.Dislike(ctx, userID, edition, submissionID); err != nil {
			if errors.Is(err, domain.ErrPreferenceNotFound) {
				return err
			}
			return fmt.Errorf("dislike %s: %w", submissionID, err)
		}
		return nil
	default:
		return fmt.Errorf("action %q: %w", action, domain.ErrBadAction)
	}
}

// ListAll returns the user's votes across every edition, each hydrated with
// the stored submissions. Users without votes get an empty slice.
func (s *Service) ListAll(ctx context.Context, userID string) ([]domain.EditionVotes, error) {
	prefs, err := s.repo.All(ctx, userID)
	if errors.Is(err, domain.ErrPreferenceNotFound) {
		return []domain.EditionVotes{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}

	editions := make([]string, 0, len(prefs))
	for edition := range prefs {
		editions = append(editions, edition)
	}
	sort.Strings(editions)

	votes := make([]domain.EditionVotes, 0, len(editions))
	for _, edition := range editions {
		abstracts, err := s.subs.GetMulti(ctx, edition, prefs[edition])
		if err != nil {
			return nil, fmt.Errorf("hydrate votes for %s: %w", edition, err)
		}
		votes = append(votes, domain.EditionVotes{Edition: edition, Abstracts: abstracts})
	}
	return votes, nil
}

// ByEdition returns the user's hydrated votes for one edition.
func (s *Service) ByEdition(ctx context.Context, userID, edition string) (domain.EditionVotes, error) {
	ids, err := s.repo.ByEdition(ctx, userID, edition)
	if err != nil {
		return domain.EditionVotes{}, fmt.Errorf("votes for %s: %w", edition, err)
	}
	abstracts, err := s.subs.GetMulti(ctx, edition, ids)
	if err != nil {
		return domain.EditionVotes{}, fmt.Errorf("hydrate votes for %s: %w", edition, err)
	}
	return domain.EditionVotes{Edition: edition, Abstracts: abstracts}, nil
}

// LikedIDs returns the raw liked submission IDs of one edition.
func (s *Service) LikedIDs(ctx context.Context, userID, edition string) ([]string, error) {
	return s.repo.ByEdition(ctx, userID, edition)
}
