package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsrag/internal/config"
	"github.com/xxxsen/newsrag/internal/filestore"
	"github.com/xxxsen/newsrag/internal/model"
	appErr "github.com/xxxsen/newsrag/internal/pkg/errors"
)

func newTestStore(t *testing.T) filestore.Store {
	t.Helper()
	store, err := filestore.New(config.StoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)
	return store
}

func buildIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := New(3)
	require.NoError(t, err)
	require.NoError(t, idx.Add(
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0.267261, 0.534522, 0.801784},
		},
		[]model.Chunk{
			{URL: "https://example.com/a", Seq: 0, Text: "first"},
			{URL: "https://example.com/a", Seq: 1, Text: "second"},
			{URL: "https://example.com/b", Seq: 0, Text: "third"},
		},
	))
	return idx
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idx := buildIndex(t)

	require.NoError(t, Save(ctx, store, "corpus-1", idx, "fake-embed-001"))
	loaded, manifest, err := Load(ctx, store, "corpus-1", 3)
	require.NoError(t, err)
	require.Equal(t, "fake-embed-001", manifest.EmbedModel)
	require.Equal(t, 3, manifest.Dim)
	require.Equal(t, 3, manifest.DocCount)

	// Identical search results: same chunks, same scores, same order.
	query := []float32{0.5, 0.5, 0.70710678}
	want, err := idx.Search(query, 3)
	require.NoError(t, err)
	got, err := loaded.Search(query, 3)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadMissingCorpus(t *testing.T) {
	store := newTestStore(t)
	_, _, err := Load(context.Background(), store, "never-ingested", 3)
	require.ErrorIs(t, err, appErr.ErrIndexMissing)
}

func TestLoadDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, Save(ctx, store, "corpus-1", buildIndex(t), "fake-embed-001"))

	_, _, err := Load(ctx, store, "corpus-1", 8)
	require.ErrorIs(t, err, appErr.ErrDimensionMismatch)
}

func TestMatrixCodecRoundTrip(t *testing.T) {
	vectors := [][]float32{
		{0.1, -0.2, 0.3},
		{1, 0, -1},
	}
	data, err := encodeMatrix(vectors, 3)
	require.NoError(t, err)
	decoded, dim, err := decodeMatrix(data)
	require.NoError(t, err)
	require.Equal(t, 3, dim)
	require.Equal(t, vectors, decoded)
}

func TestMatrixCodecEmpty(t *testing.T) {
	data, err := encodeMatrix(nil, 5)
	require.NoError(t, err)
	decoded, dim, err := decodeMatrix(data)
	require.NoError(t, err)
	require.Equal(t, 5, dim)
	require.Empty(t, decoded)
}

func TestAppendThenReload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idx := buildIndex(t)
	require.NoError(t, Save(ctx, store, "corpus-1", idx, "fake-embed-001"))

	loaded, _, err := Load(ctx, store, "corpus-1", 3)
	require.NoError(t, err)
	require.NoError(t, loaded.Add(
		[][]float32{{0, 0, 1}},
		[]model.Chunk{{URL: "https://example.com/c", Seq: 0, Text: "fourth"}},
	))
	require.NoError(t, Save(ctx, store, "corpus-1", loaded, "fake-embed-001"))

	again, manifest, err := Load(ctx, store, "corpus-1", 3)
	require.NoError(t, err)
	require.Equal(t, 4, manifest.DocCount)
	require.Equal(t, 4, again.Len())
}
