package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/confbase/confbase/internal/domain"
	"github.com/confbase/confbase/internal/recommend"
	"github.com/confbase/confbase/internal/repository/recstore"
)

// Runner computes and persists the recommendation artifacts of every agenda
// file in a directory. Single-threaded; a malformed input file aborts the run.
type Runner struct {
	calc   *recommend.Calculator
	store  *recstore.Store
	logger *zap.Logger
}

func NewRunner(calc *recommend.Calculator, store *recstore.Store, logger *zap.Logger) *Runner {
	return &Runner{calc: calc, store: store, logger: logger}
}

// Run processes every agenda file under agendaDir with the given embedding
// option and reports how many editions produced artifacts.
func (r *Runner) Run(ctx context.Context, agendaDir, option string) (int, error) {
	paths, err := ListAgendaFiles(agendaDir)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		r.logger.Warn("no agenda files found", zap.String("dir", agendaDir))
		return 0, nil
	}

	done := 0
	for _, path := range paths {
		edition := Edition(path)
		subs, err := ParseFile(path)
		if err != nil {
			return done, fmt.Errorf("edition %s: %w", edition, err)
		}

		records, err := r.calc.Calculate(ctx, subs, option)
		if err != nil {
			return done, fmt.Errorf("edition %s: %w", edition, err)
		}
		if len(records) == 0 {
			r.logger.Warn("no embeddings produced, skipping edition",
				zap.String("edition", edition), zap.Int("submissions", len(subs)))
			continue
		}

		if err := r.persist(edition, records); err != nil {
			return done, fmt.Errorf("edition %s: %w", edition, err)
		}
		r.logger.Info("edition embedded",
			zap.String("edition", edition),
			zap.Int("submissions", len(subs)),
			zap.Int("embeddings", len(records)),
		)
		done++
	}
	return done, nil
}

func (r *Runner) persist(edition string, records []domain.EmbeddingRecord) error {
	if err := r.store.SaveEmbeddings(edition, records); err != nil {
		return err
	}

	idx, err := recommend.NewNeighborIndex(records)
	if err != nil {
		return fmt.Errorf("build neighbor index: %w", err)
	}
	return r.store.SaveIndex(edition, idx)
}
