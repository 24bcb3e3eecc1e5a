// Package recstore persists the offline recommendation artifacts: one JSON
// file of embedding records and one gob-encoded neighbor index per edition.
package recstore

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/confbase/confbase/internal/domain"
	"github.com/confbase/confbase/internal/recommend"
)

// Store reads and writes recommendation artifacts under a single directory.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

// SaveEmbeddings writes the embedding records of an edition atomically.
func (s *Store) SaveEmbeddings(edition string, records []domain.EmbeddingRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create embeddings dir: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal embeddings: %w", err)
	}
	return writeAtomic(s.embeddingsPath(edition), data)
}

// LoadEmbeddings reads the embedding records of an edition. A missing file
// maps to domain.ErrNotFound so callers can degrade gracefully.
func (s *Store) LoadEmbeddings(edition string) ([]domain.EmbeddingRecord, error) {
	data, err := os.ReadFile(s.embeddingsPath(edition))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("read embeddings: %w", err)
	}
	var records []domain.EmbeddingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal embeddings: %w", err)
	}
	return records, nil
}

// SaveIndex writes the neighbor index of an edition atomically.
func (s *Store) SaveIndex(edition string, idx *recommend.NeighborIndex) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create embeddings dir: %w", err)
	}
	f, err := os.CreateTemp(s.dir, edition+"-*.gob.tmp")
	if err != nil {
		return fmt.Errorf("create temp index: %w", err)
	}
	defer os.Remove(f.Name())

	if err := gob.NewEncoder(f).Encode(idx); err != nil {
		f.Close()
		return fmt.Errorf("encode index: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp index: %w", err)
	}
	return os.Rename(f.Name(), s.indexPath(edition))
}

// LoadIndex reads the neighbor index of an edition. A missing file maps to
// domain.ErrNotFound.
func (s *Store) LoadIndex(edition string) (*recommend.NeighborIndex, error) {
	f, err := os.Open(s.indexPath(edition))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	var idx recommend.NeighborIndex
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return &idx, nil
}

func (s *Store) embeddingsPath(edition string) string {
	return filepath.Join(s.dir, edition+".json")
}

func (s *Store) indexPath(edition string) string {
	return filepath.Join(s.dir, edition+".gob")
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(f.Name(), path)
}
