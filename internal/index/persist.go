package index

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/xxxsen/newsrag/internal/filestore"
	"github.com/xxxsen/newsrag/internal/model"
	appErr "github.com/xxxsen/newsrag/internal/pkg/errors"
)

// Three artifacts per corpus. The matrix is a binary blob so float32
// values round-trip bit-exactly; chunks and manifest are JSON.
const (
	vectorsBlob  = "vectors.bin"
	chunksBlob   = "chunks.json"
	manifestBlob = "manifest.json"
)

func blobKey(corpusID, name string) string {
	return corpusID + "/" + name
}

// Save writes the corpus artifacts and rewrites the manifest.
func Save(ctx context.Context, store filestore.Store, corpusID string, idx *Index, embedModel string) error {
	if corpusID == "" {
		return fmt.Errorf("corpus id is required")
	}
	vectors, chunks := idx.Snapshot()
	manifest := model.Manifest{
		EmbedModel: embedModel,
		Dim:        idx.Dim(),
		DocCount:   len(chunks),
	}

	matrixData, err := encodeMatrix(vectors, idx.Dim())
	if err != nil {
		return fmt.Errorf("encode vector matrix: %w", err)
	}
	chunksData, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err := store.Put(ctx, blobKey(corpusID, vectorsBlob), matrixData); err != nil {
		return fmt.Errorf("put vectors: %w", err)
	}
	if err := store.Put(ctx, blobKey(corpusID, chunksBlob), chunksData); err != nil {
		return fmt.Errorf("put chunks: %w", err)
	}
	if err := store.Put(ctx, blobKey(corpusID, manifestBlob), manifestData); err != nil {
		return fmt.Errorf("put manifest: %w", err)
	}
	return nil
}

// Load rebuilds a corpus index. A missing artifact maps to
// ErrIndexMissing; a manifest dim that disagrees with wantDim (the
// runtime embedder's dimensionality) maps to ErrDimensionMismatch so two
// embedding spaces can never be silently mixed. Pass wantDim <= 0 to
// skip the runtime check.
func Load(ctx context.Context, store filestore.Store, corpusID string, wantDim int) (*Index, *model.Manifest, error) {
	manifestData, err := store.Get(ctx, blobKey(corpusID, manifestBlob))
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil, fmt.Errorf("%w: corpus %s", appErr.ErrIndexMissing, corpusID)
		}
		return nil, nil, fmt.Errorf("get manifest: %w", err)
	}
	var manifest model.Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, nil, fmt.Errorf("decode manifest: %w", err)
	}
	if manifest.Dim <= 0 {
		return nil, nil, fmt.Errorf("manifest has invalid dim %d", manifest.Dim)
	}
	if wantDim > 0 && manifest.Dim != wantDim {
		return nil, nil, fmt.Errorf("%w: corpus %s has dim %d, embedder has dim %d",
			appErr.ErrDimensionMismatch, corpusID, manifest.Dim, wantDim)
	}

	chunksData, err := store.Get(ctx, blobKey(corpusID, chunksBlob))
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil, fmt.Errorf("%w: corpus %s", appErr.ErrIndexMissing, corpusID)
		}
		return nil, nil, fmt.Errorf("get chunks: %w", err)
	}
	var chunks []model.Chunk
	if err := json.Unmarshal(chunksData, &chunks); err != nil {
		return nil, nil, fmt.Errorf("decode chunks: %w", err)
	}

	matrixData, err := store.Get(ctx, blobKey(corpusID, vectorsBlob))
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil, fmt.Errorf("%w: corpus %s", appErr.ErrIndexMissing, corpusID)
		}
		return nil, nil, fmt.Errorf("get vectors: %w", err)
	}
	vectors, dim, err := decodeMatrix(matrixData)
	if err != nil {
		return nil, nil, fmt.Errorf("decode vector matrix: %w", err)
	}
	if dim != manifest.Dim {
		return nil, nil, fmt.Errorf("%w: matrix dim %d, manifest dim %d",
			appErr.ErrDimensionMismatch, dim, manifest.Dim)
	}
	if len(vectors) != len(chunks) || len(chunks) != manifest.DocCount {
		return nil, nil, fmt.Errorf("corpus %s artifacts misaligned: %d vectors, %d chunks, manifest says %d",
			corpusID, len(vectors), len(chunks), manifest.DocCount)
	}

	idx, err := FromSnapshot(vectors, chunks, manifest.Dim)
	if err != nil {
		return nil, nil, err
	}
	return idx, &manifest, nil
}

// encodeMatrix lays out rows, cols, then row-major float32 raws.
func encodeMatrix(vectors [][]float32, dim int) ([]byte, error) {
	rows := len(vectors)
	size := varint.Int.Size(rows) + varint.Int.Size(dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("row width %d, want %d", len(v), dim)
		}
		for _, f := range v {
			size += raw.Float32.Size(f)
		}
	}
	bs := make([]byte, size)
	n := varint.Int.Marshal(rows, bs)
	n += varint.Int.Marshal(dim, bs[n:])
	for _, v := range vectors {
		for _, f := range v {
			n += raw.Float32.Marshal(f, bs[n:])
		}
	}
	return bs, nil
}

func decodeMatrix(bs []byte) ([][]float32, int, error) {
	rows, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, 0, err
	}
	dim, m, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return nil, 0, err
	}
	n += m
	if rows < 0 || dim <= 0 {
		return nil, 0, fmt.Errorf("bad matrix header: rows=%d dim=%d", rows, dim)
	}
	vectors := make([][]float32, 0, rows)
	for i := 0; i < rows; i++ {
		row := make([]float32, dim)
		for j := 0; j < dim; j++ {
			f, m, err := raw.Float32.Unmarshal(bs[n:])
			if err != nil {
				return nil, 0, fmt.Errorf("row %d col %d: %w", i, j, err)
			}
			row[j] = f
			n += m
		}
		vectors = append(vectors, row)
	}
	if n != len(bs) {
		return nil, 0, fmt.Errorf("trailing bytes in vector matrix: %d", len(bs)-n)
	}
	return vectors, dim, nil
}
