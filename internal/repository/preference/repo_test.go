package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/confbase/confbase/internal/domain"
)

func TestLikeKeyFormat(t *testing.T) {
	var gotKey string
	var gotMembers []string
	store := &mockStore{
		sAddFunc: func(_ context.Context, key string, members ...string) error {
			gotKey, gotMembers = key, members
			return nil
		},
	}
	repo := New(store)

	if err := repo.Like(context.Background(), "u1", "2020-3", "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "confbase:pref:u1:2020-3" {
		t.Errorf("key = %q", gotKey)
	}
	if len(gotMembers) != 1 || gotMembers[0] != "s1" {
		t.Errorf("members = %v", gotMembers)
	}
}

func TestDislikeWithoutRecord(t *testing.T) {
	sRemCalled := false
	store := &mockStore{
		scanFunc: func(_ context.Context, pattern string) ([]string, error) {
			return nil, nil
		},
		sRemFunc: func(_ context.Context, _ string, _ ...string) error {
			sRemCalled = true
			return nil
		},
	}
	repo := New(store)

	err := repo.Dislike(context.Background(), "u1", "2020-3", "s1")
	if !errors.Is(err, domain.ErrPreferenceNotFound) {
		t.Fatalf("err = %v, want ErrPreferenceNotFound", err)
	}
	if sRemCalled {
		t.Error("dislike without a record must not touch the set")
	}
}

func TestDislikeRemovesVote(t *testing.T) {
	var gotKey string
	store := &mockStore{
		scanFunc: func(_ context.Context, _ string) ([]string, error) {
			return []string{"confbase:pref:u1:2020-3"}, nil
		},
		sRemFunc: func(_ context.Context, key string, _ ...string) error {
			gotKey = key
			return nil
		},
	}
	repo := New(store)

	if err := repo.Dislike(context.Background(), "u1", "2020-3", "s1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "confbase:pref:u1:2020-3" {
		t.Errorf("key = %q", gotKey)
	}
}

func TestByEditionSorted(t *testing.T) {
	store := &mockStore{
		sMembersFunc: func(_ context.Context, _ string) ([]string, error) {
			return []string{"s3", "s1", "s2"}, nil
		},
	}
	repo := New(store)

	ids, err := repo.ByEdition(context.Background(), "u1", "2020-3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"s1", "s2", "s3"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}

func TestAllGroupsByEdition(t *testing.T) {
	store := &mockStore{
		scanFunc: func(_ context.Context, pattern string) ([]string, error) {
			if pattern != "confbase:pref:u1:*" {
				t.Errorf("pattern = %q", pattern)
			}
			return []string{"confbase:pref:u1:2020-2", "confbase:pref:u1:2020-3"}, nil
		},
		sMembersFunc: func(_ context.Context, key string) ([]string, error) {
			if key == "confbase:pref:u1:2020-2" {
				return []string{"a"}, nil
			}
			return []string{"c", "b"}, nil
		},
	}
	repo := New(store)

	pref, err := repo.All(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pref) != 2 {
		t.Fatalf("pref = %v", pref)
	}
	if got := pref["2020-3"]; len(got) != 2 || got[0] != "b" {
		t.Errorf("2020-3 votes = %v", got)
	}
}

func TestAllWithoutRecord(t *testing.T) {
	repo := New(&mockStore{})

	_, err := repo.All(context.Background(), "u1")
	if !errors.Is(err, domain.ErrPreferenceNotFound) {
		t.Fatalf("err = %v, want ErrPreferenceNotFound", err)
	}
}
