// Package preference stores per-user voting preferences. Each (user, edition)
// pair is one set of submission IDs, so like and dislike are single atomic
// set operations rather than a read-modify-write on a whole document.
package preference

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/confbase/confbase/internal/domain"
)

// store is the consumer interface for preferences (ISP).
type store interface {
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo implements usecase/preference.Repository.
type Repo struct {
	store store
}

// New creates a preference repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Like records a vote for a submission. Repeats are no-ops.
func (r *Repo) Like(ctx context.Context, userID, edition, submissionID string) error {
	if err := r.store.SAdd(ctx, prefKey(userID, edition), submissionID); err != nil {
		return fmt.Errorf("add vote %s/%s: %w", userID, edition, err)
	}
	return nil
}

// Dislike withdraws a vote. A user with no stored preference record at all
// gets ErrPreferenceNotFound; removing an absent member is a no-op.
func (r *Repo) Dislike(ctx context.Context, userID, edition, submissionID string) error {
	keys, err := r.store.Scan(ctx, prefKey(userID, "*"))
	if err != nil {
		return fmt.Errorf("scan votes %s: %w", userID, err)
	}
	if len(keys) == 0 {
		return domain.ErrPreferenceNotFound
	}
	if err := r.store.SRem(ctx, prefKey(userID, edition), submissionID); err != nil {
		return fmt.Errorf("remove vote %s/%s: %w", userID, edition, err)
	}
	return nil
}

// ByEdition returns the submission IDs the user voted for in one edition,
// sorted for a stable API ordering.
func (r *Repo) ByEdition(ctx context.Context, userID, edition string) ([]string, error) {
	ids, err := r.store.SMembers(ctx, prefKey(userID, edition))
	if err != nil {
		return nil, fmt.Errorf("read votes %s/%s: %w", userID, edition, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// All returns every edition the user voted in with its submission IDs, or
// ErrPreferenceNotFound when no record exists.
func (r *Repo) All(ctx context.Context, userID string) (domain.Preference, error) {
	keys, err := r.store.Scan(ctx, prefKey(userID, "*"))
	if err != nil {
		return nil, fmt.Errorf("scan votes %s: %w", userID, err)
	}
	if len(keys) == 0 {
		return nil, domain.ErrPreferenceNotFound
	}

	pref := make(domain.Preference, len(keys))
	for _, key := range keys {
		edition := editionFromKey(key, userID)
		if edition == "" {
			continue
		}
		ids, err := r.store.SMembers(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read votes %s: %w", key, err)
		}
		sort.Strings(ids)
		pref[edition] = ids
	}
	return pref, nil
}

func prefKey(userID, edition string) string {
	return "confbase:pref:" + userID + ":" + edition
}

func editionFromKey(key, userID string) string {
	return strings.TrimPrefix(key, "confbase:pref:"+userID+":")
}
