package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/confbase/confbase/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	likeCalls    []string
	dislikeCalls []string
	likeErr      error
	dislikeErr   error
	byEdition    map[string][]string
	byEditionErr error
	all          domain.Preference
	allErr       error
}

func (m *mockRepo) Like(_ context.Context, userID, edition, submissionID string) error {
	m.likeCalls = append(m.likeCalls, userID+"/"+edition+"/"+submissionID)
	return m.likeErr
}

func (m *mockRepo) Dislike(_ context.Context, userID, edition, submissionID string) error {
	m.dislikeCalls = append(m.dislikeCalls, userID+"/"+edition+"/"+submissionID)
	return m.dislikeErr
}

func (m *mockRepo) ByEdition(_ context.Context, _, edition string) ([]string, error) {
	return m.byEdition[edition], m.byEditionErr
}

func (m *mockRepo) All(_ context.Context, _ string) (domain.Preference, error) {
	return m.all, m.allErr
}

type mockSubs struct {
	byID map[string]domain.Submission
}

func (m *mockSubs) GetMulti(_ context.Context, _ string, ids []string) ([]domain.Submission, error) {
	out := make([]domain.Submission, 0, len(ids))
	for _, id := range ids {
		if sub, ok := m.byID[id]; ok {
			out = append(out, sub)
		}
	}
	return out, nil
}

// --- Tests ---

func TestUpdateLike(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockSubs{})

	if err := svc.Update(context.Background(), "u1", "2020-3", "s1", ActionLike); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.likeCalls) != 1 || repo.likeCalls[0] != "u1/2020-3/s1" {
		t.Errorf("like calls = %v", repo.likeCalls)
	}
}

func TestUpdateDislikeWithoutVotes(t *testing.T) {
	repo := &mockRepo{dislikeErr: domain.ErrPreferenceNotFound}
	svc := New(repo, &mockSubs{})

	err := svc.Update(context.Background(), "u1", "2020-3", "s1", ActionDislike)
	if !errors.Is(err, domain.ErrPreferenceNotFound) {
		t.Fatalf("err = %v, want ErrPreferenceNotFound", err)
	}
}

func TestUpdateBadAction(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockSubs{})

	err := svc.Update(context.Background(), "u1", "2020-3", "s1", "superlike")
	if !errors.Is(err, domain.ErrBadAction) {
		t.Fatalf("err = %v, want ErrBadAction", err)
	}
	if len(repo.likeCalls)+len(repo.dislikeCalls) != 0 {
		t.Error("bad action must not reach the repository")
	}
}

func TestListAllHydratesSortedByEdition(t *testing.T) {
	repo := &mockRepo{all: domain.Preference{
		"2020-3": {"s2"},
		"2020-1": {"s1"},
	}}
	subs := &mockSubs{byID: map[string]domain.Submission{
		"s1": {ID: "s1", Title: "first"},
		"s2": {ID: "s2", Title: "second"},
	}}
	svc := New(repo, subs)

	votes, err := svc.ListAll(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("editions = %d, want 2", len(votes))
	}
	if votes[0].Edition != "2020-1" || votes[1].Edition != "2020-3" {
		t.Errorf("editions not sorted: %s, %s", votes[0].Edition, votes[1].Edition)
	}
	if len(votes[0].Abstracts) != 1 || votes[0].Abstracts[0].Title != "first" {
		t.Errorf("hydration failed: %+v", votes[0].Abstracts)
	}
}

func TestListAllWithoutVotes(t *testing.T) {
	repo := &mockRepo{allErr: domain.ErrPreferenceNotFound}
	svc := New(repo, &mockSubs{})

	votes, err := svc.ListAll(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if votes == nil || len(votes) != 0 {
		t.Errorf("want empty slice, got %v", votes)
	}
}

func TestByEditionSkipsMissingSubmissions(t *testing.T) {
	repo := &mockRepo{byEdition: map[string][]string{"2020-3": {"s1", "gone"}}}
	subs := &mockSubs{byID: map[string]domain.Submission{"s1": {ID: "s1"}}}
	svc := New(repo, subs)

	votes, err := svc.ByEdition(context.Background(), "u1", "2020-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if votes.Edition != "2020-3" || len(votes.Abstracts) != 1 {
		t.Errorf("votes = %+v", votes)
	}
}
