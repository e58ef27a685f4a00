package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"rachmat-backend/internal/storage"
)

func TestStore_WriteReadRoundTrip(t *testing.T) {
	store := storage.NewMem()

	require.NoError(t, store.Write("patterns/abc/rose.dst", []byte("stitch-data")))

	data, err := store.Read("patterns/abc/rose.dst")
	require.NoError(t, err)
	assert.Equal(t, []byte("stitch-data"), data)

	size, err := store.Size("patterns/abc/rose.dst")
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)
}

func TestStore_Exists(t *testing.T) {
	store := storage.NewMem()
	require.NoError(t, store.Write("a.dst", []byte("data")))

	assert.True(t, store.Exists("a.dst"))
	assert.False(t, store.Exists("missing.pes"))
}

func TestStore_ReadMissingFile(t *testing.T) {
	store := storage.NewMem()

	_, err := store.Read("nope.dst")
	assert.Error(t, err)
}
