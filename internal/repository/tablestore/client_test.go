package tablestore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/confbase/confbase/internal/domain"
)

func TestDisabledClient(t *testing.T) {
	c := New("", "")

	if c.Enabled() {
		t.Fatal("client without an API key must be disabled")
	}
	_, err := c.Get(context.Background(), "base", "agenda", "rec1")
	if !errors.Is(err, domain.ErrNoTableStore) {
		t.Fatalf("err = %v, want ErrNoTableStore", err)
	}
}

func TestGetRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/base/agenda/rec1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("authorization = %q", got)
		}
		json.NewEncoder(w).Encode(Record{ID: "rec1", Fields: map[string]any{"title": "Talk"}})
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	rec, err := c.Get(context.Background(), "base", "agenda", "rec1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "rec1" || rec.Fields["title"] != "Talk" {
		t.Errorf("record = %+v", rec)
	}
}

func TestGetMissingRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	_, err := c.Get(context.Background(), "base", "agenda", "gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCreateRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		var in Record
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatal(err)
		}
		if in.Fields["title"] != "New talk" {
			t.Errorf("fields = %v", in.Fields)
		}
		json.NewEncoder(w).Encode(Record{ID: "recNEW", Fields: in.Fields})
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	id, err := c.CreateRecord(context.Background(), "base", "agenda", map[string]any{"title": "New talk"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "recNEW" {
		t.Errorf("id = %q", id)
	}
}

func TestUpdateRecordPatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %s", r.Method)
		}
		if r.URL.Path != "/base/agenda/rec1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Record{ID: "rec1"})
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	err := c.UpdateRecord(context.Background(), "base", "agenda", "rec1", map[string]any{"title": "Edited"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListFollowsOffset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("offset") {
		case "":
			json.NewEncoder(w).Encode(listResponse{
				Records: []Record{{ID: "rec1"}, {ID: "rec2"}},
				Offset:  "page2",
			})
		case "page2":
			json.NewEncoder(w).Encode(listResponse{Records: []Record{{ID: "rec3"}}})
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	records, err := c.List(context.Background(), "base", "agenda")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 || records[2].ID != "rec3" {
		t.Errorf("records = %+v", records)
	}
}

func TestServerErrorSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL, "key")
	_, err := c.Create(context.Background(), "base", "agenda", map[string]any{})
	if err == nil {
		t.Fatal("want error")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Errorf("error %q should carry the status code", err)
	}
}
