package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_GetMissing(t *testing.T) {
	s := NewFile(t.TempDir())

	data, ok, err := s.Get(context.Background(), "geocoding_cache")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestFileStore_PutThenGet(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	s := NewFile(dir)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "geocoding_cache", []byte(`{"a":1}`)))
	require.NoError(t, s.Put(ctx, "geocoding_cache", []byte(`{"b":2}`)))

	data, ok, err := s.Get(ctx, "geocoding_cache")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"b":2}`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files are cleaned up")
	assert.Equal(t, "geocoding_cache.json", entries[0].Name())
	require.NoError(t, s.Close())
}

func TestFileStore_ReadError(t *testing.T) {
	dir := t.TempDir()
	// A directory where the slot file should be makes ReadFile fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, "slot.json"), 0o755))

	_, _, err := NewFile(dir).Get(context.Background(), "slot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file store: read slot")
}

func TestNewFile_DefaultDir(t *testing.T) {
	assert.Equal(t, "x.json", NewFile("").path("x"))
}
