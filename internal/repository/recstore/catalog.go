package recstore

import (
	"errors"

	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/domain"
	"github.com/confbase/confbase/internal/recommend"
)

// Catalog serves the neighbor indexes loaded at startup, one per edition.
// Editions without artifacts are simply absent; recommendation views then
// degrade to empty results.
type Catalog struct {
	indexes map[string]*recommend.NeighborIndex
}

// LoadCatalog reads the neighbor index of every known edition. Missing
// artifacts are logged and skipped, read failures abort.
func LoadCatalog(store *Store, editions []string, log *zap.Logger) (*Catalog, error) {
	indexes := make(map[string]*recommend.NeighborIndex, len(editions))
	for _, edition := range editions {
		idx, err := store.LoadIndex(edition)
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("no neighbor index for edition, recommendations disabled",
				zap.String("edition", edition))
			continue
		}
		if err != nil {
			return nil, err
		}
		indexes[edition] = idx
		log.Info("neighbor index loaded",
			zap.String("edition", edition), zap.Int("submissions", idx.Len()))
	}
	return &Catalog{indexes: indexes}, nil
}

// Index returns the neighbor index of an edition, if one was loaded.
func (c *Catalog) Index(edition string) (*recommend.NeighborIndex, bool) {
	idx, ok := c.indexes[edition]
	return idx, ok
}
