package index

import (
	"fmt"
	"sort"

	"github.com/xxxsen/newsrag/internal/model"
)

// Index is a flat inner-product index over pre-normalized vectors. Row
// order of the matrix and the chunk list stay in lock-step; that
// alignment is what every later citation depends on. Writes must be
// serialized by the caller; reads are safe against a quiescent index.
type Index struct {
	dim     int
	vectors [][]float32
	chunks  []model.Chunk
}

func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dim must be positive, got %d", dim)
	}
	return &Index{dim: dim}, nil
}

func (x *Index) Dim() int {
	return x.dim
}

func (x *Index) Len() int {
	return len(x.chunks)
}

// Chunks exposes the full corpus in insertion order for lexical scoring.
// Callers must not mutate the returned slice.
func (x *Index) Chunks() []model.Chunk {
	return x.chunks
}

// Add appends vector/chunk pairs in parallel. Appending is the only
// mutation an index supports.
func (x *Index) Add(vectors [][]float32, chunks []model.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("vector/chunk count mismatch: %d vs %d", len(vectors), len(chunks))
	}
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("bad vector width at row %d: got %d, want %d", i, len(v), x.dim)
		}
	}
	x.vectors = append(x.vectors, vectors...)
	x.chunks = append(x.chunks, chunks...)
	return nil
}

// Search returns up to k hits ranked by descending inner product, ties
// broken by insertion order.
func (x *Index) Search(query []float32, k int) ([]model.Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("bad query width: got %d, want %d", len(query), x.dim)
	}
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}
	hits := make([]model.Hit, 0, len(x.vectors))
	for row, v := range x.vectors {
		hits = append(hits, model.Hit{
			Chunk: x.chunks[row],
			Score: innerProduct(query, v),
			Row:   row,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Snapshot returns the full matrix and aligned chunk list for
// persistence. The outer slices are copied so later appends cannot shift
// a snapshot under its consumer.
func (x *Index) Snapshot() ([][]float32, []model.Chunk) {
	vectors := make([][]float32, len(x.vectors))
	copy(vectors, x.vectors)
	chunks := make([]model.Chunk, len(x.chunks))
	copy(chunks, x.chunks)
	return vectors, chunks
}

// FromSnapshot rebuilds an index whose search results are identical to
// the one the snapshot was taken from.
func FromSnapshot(vectors [][]float32, chunks []model.Chunk, dim int) (*Index, error) {
	idx, err := New(dim)
	if err != nil {
		return nil, err
	}
	if err := idx.Add(vectors, chunks); err != nil {
		return nil, err
	}
	return idx, nil
}

func innerProduct(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
