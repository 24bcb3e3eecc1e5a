// Package profile stores user profile documents in the key-value store.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/confbase/confbase/internal/db"
	"github.com/confbase/confbase/internal/domain"
)

// store is the consumer interface for profiles (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements usecase/profile.Repository.
type Repo struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get returns the stored profile for a user, or ErrNotFound.
func (r *Repo) Get(ctx context.Context, userID string) (domain.Profile, error) {
	raw, err := r.store.JSONGet(ctx, profileKey(userID), "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("json.get profile %s: %w", userID, err)
	}
	return parseProfile(raw)
}

// Set stores the payload verbatim, replacing any existing profile.
func (r *Repo) Set(ctx context.Context, userID string, payload domain.Profile) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := r.store.JSONSet(ctx, profileKey(userID), "$", data); err != nil {
		return fmt.Errorf("json.set profile %s: %w", userID, err)
	}
	return nil
}

// Update merges top-level keys into the stored profile. A missing profile is
// created from the update alone.
func (r *Repo) Update(ctx context.Context, userID string, update domain.Profile) error {
	current, err := r.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		current = domain.Profile{}
	}
	for k, v := range update {
		current[k] = v
	}
	return r.Set(ctx, userID, current)
}

func profileKey(userID string) string {
	return "confbase:user:" + userID
}

// parseProfile unwraps the JSONPath array form ([{...}]) returned by JSON.GET $.
func parseProfile(raw []byte) (domain.Profile, error) {
	var docs []domain.Profile
	if err := json.Unmarshal(raw, &docs); err == nil && len(docs) > 0 {
		return docs[0], nil
	}
	var doc domain.Profile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return doc, nil
}
