package recommend

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
	"sort"

	"github.com/confbase/confbase/internal/domain"
)

// Neighbor is a single hit from a similarity query.
type Neighbor struct {
	SubmissionID string
	Similarity   float64
}

// NeighborIndex is a brute-force cosine nearest-neighbor index over the
// embedding vectors of one conference edition. It is fitted offline with the
// neighbor count equal to the corpus size, so a query can rank the whole
// corpus; it is never updated incrementally.
type NeighborIndex struct {
	ids     []string
	vectors [][]float32
	byID    map[string]int
	dim     int
}

// NewNeighborIndex fits an index over the given embedding records.
func NewNeighborIndex(records []domain.EmbeddingRecord) (*NeighborIndex, error) {
	idx := &NeighborIndex{byID: make(map[string]int, len(records))}
	for _, rec := range records {
		if len(rec.Embedding) == 0 {
			return nil, fmt.Errorf("record %s has an empty embedding", rec.SubmissionID)
		}
		if idx.dim == 0 {
			idx.dim = len(rec.Embedding)
		}
		if len(rec.Embedding) != idx.dim {
			return nil, fmt.Errorf("record %s: dimension %d, want %d",
				rec.SubmissionID, len(rec.Embedding), idx.dim)
		}
		idx.byID[rec.SubmissionID] = len(idx.ids)
		idx.ids = append(idx.ids, rec.SubmissionID)
		idx.vectors = append(idx.vectors, rec.Embedding)
	}
	return idx, nil
}

// Len returns the corpus size.
func (idx *NeighborIndex) Len() int { return len(idx.ids) }

// Dim returns the vector dimensionality.
func (idx *NeighborIndex) Dim() int { return idx.dim }

// Vector returns the stored embedding for a submission ID, or nil.
func (idx *NeighborIndex) Vector(id string) []float32 {
	i, ok := idx.byID[id]
	if !ok {
		return nil
	}
	return idx.vectors[i]
}

// Neighbors ranks the whole corpus by cosine similarity to the query vector
// and returns the top k. Ties break on submission ID so the ordering is
// stable for a fixed corpus.
func (idx *NeighborIndex) Neighbors(query []float32, k int) []Neighbor {
	if len(query) != idx.dim || idx.Len() == 0 {
		return nil
	}
	if k <= 0 || k > idx.Len() {
		k = idx.Len()
	}

	hits := make([]Neighbor, idx.Len())
	for i, vec := range idx.vectors {
		hits[i] = Neighbor{SubmissionID: idx.ids[i], Similarity: cosine(query, vec)}
	}
	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Similarity != hits[b].Similarity {
			return hits[a].Similarity > hits[b].Similarity
		}
		return hits[a].SubmissionID < hits[b].SubmissionID
	})
	return hits[:k]
}

// NeighborsOf ranks the corpus by similarity to a stored submission.
func (idx *NeighborIndex) NeighborsOf(id string, k int) []Neighbor {
	vec := idx.Vector(id)
	if vec == nil {
		return nil
	}
	return idx.Neighbors(vec, k)
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// indexBlob is the gob wire form of a NeighborIndex.
type indexBlob struct {
	IDs     []string
	Vectors [][]float32
	Dim     int
}

// GobEncode serializes the index for the on-disk model blob.
func (idx *NeighborIndex) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(indexBlob{IDs: idx.ids, Vectors: idx.vectors, Dim: idx.dim}); err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode restores an index from its on-disk blob.
func (idx *NeighborIndex) GobDecode(data []byte) error {
	var blob indexBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return fmt.Errorf("decode index: %w", err)
	}
	idx.ids = blob.IDs
	idx.vectors = blob.Vectors
	idx.dim = blob.Dim
	idx.byID = make(map[string]int, len(blob.IDs))
	for i, id := range blob.IDs {
		idx.byID[id] = i
	}
	return nil
}
