package filestore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/newsrag/internal/config"
	appErr "github.com/xxxsen/newsrag/internal/pkg/errors"
)

func TestLocalStorePutGet(t *testing.T) {
	store, err := New(config.StoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "corpus-1/manifest.json", []byte(`{"dim":8}`)))
	data, err := store.Get(ctx, "corpus-1/manifest.json")
	require.NoError(t, err)
	require.Equal(t, `{"dim":8}`, string(data))
}

func TestLocalStoreMissingKey(t *testing.T) {
	store, err := New(config.StoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "nope/vectors.bin")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := New(config.StoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	require.Error(t, store.Put(context.Background(), "../escape", []byte("x")))
	_, err = store.Get(context.Background(), "/abs/path")
	require.Error(t, err)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New(config.StoreConfig{Type: "gopherstore"})
	require.Error(t, err)
}
