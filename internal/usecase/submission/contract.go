package submission

import (
	"context"
	"time"

	"github.com/confbase/confbase/internal/domain"
	"github.com/confbase/confbase/internal/recommend"
)

// Repository defines the search-store contract for submissions.
type Repository interface {
	Put(ctx context.Context, edition string, sub *domain.Submission) error
	Get(ctx context.Context, edition, id string) (domain.Submission, error)
	GetMulti(ctx context.Context, edition string, ids []string) ([]domain.Submission, error)
	Search(ctx context.Context, edition, query string) ([]domain.Submission, error)
	List(ctx context.Context, edition string, offset, limit int) ([]domain.Submission, error)
	Range(ctx context.Context, edition string, from, to time.Time) ([]domain.Submission, error)
	Count(ctx context.Context, edition string) (int, error)
}

// PreferenceReader reads the liked submission IDs of a user.
type PreferenceReader interface {
	ByEdition(ctx context.Context, userID, edition string) ([]string, error)
}

// ProfileWriter updates profile fields, used to link a created submission
// back to its author.
type ProfileWriter interface {
	Update(ctx context.Context, userID string, update domain.Profile) error
}

// NeighborSource serves the precomputed neighbor index of an edition.
type NeighborSource interface {
	Index(edition string) (*recommend.NeighborIndex, bool)
}

// TableStore is the editable submission backend (Airtable-compatible).
type TableStore interface {
	Enabled() bool
	GetFields(ctx context.Context, baseID, table, recordID string) (map[string]any, error)
	CreateRecord(ctx context.Context, baseID, table string, fields map[string]any) (string, error)
	UpdateRecord(ctx context.Context, baseID, table, recordID string, fields map[string]any) error
}

// TableRef locates the table of an edition inside the table store.
type TableRef struct {
	BaseID string
	Table  string
}
