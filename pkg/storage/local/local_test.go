package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

func newBackend(t *testing.T) (*Backend, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "mirror")
	b, err := New(storage.Config{Name: "mirror", Type: "local", Enabled: true, Options: map[string]interface{}{"path": dir}})
	require.NoError(t, err)
	return b, dir
}

func TestNew(t *testing.T) {
	t.Run("creates_directory", func(t *testing.T) {
		_, dir := newBackend(t)
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("path_required", func(t *testing.T) {
		_, err := New(storage.Config{Name: "mirror", Options: map[string]interface{}{}})
		assert.ErrorIs(t, err, storage.ErrInvalidConfig)
	})
}

func TestWriteListDelete(t *testing.T) {
	ctx := context.Background()
	b, dir := newBackend(t)

	src := filepath.Join(t.TempDir(), "a.sql.gz")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, b.Write(ctx, src, "daily/a.sql.gz"))
	require.NoError(t, b.Write(ctx, src, "daily/b.sql.gz"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "daily", "nested"), 0o755))

	data, err := os.ReadFile(filepath.Join(dir, "daily", "a.sql.gz"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	files, err := b.List(ctx, "daily/")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, int64(len("payload")), f.Size)
	}

	failures := b.Delete(ctx, []string{"daily/a.sql.gz", "daily/gone.sql.gz"})
	require.Len(t, failures, 1)
	assert.Equal(t, "daily/gone.sql.gz", failures[0].Key)
	assert.ErrorIs(t, failures[0].Err, storage.ErrDeleteFailed)
	assert.ErrorIs(t, failures[0].Err, storage.ErrNotFound)

	files, err = b.List(ctx, "daily")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "daily/b.sql.gz", files[0].Path)
}

func TestListMissingPrefix(t *testing.T) {
	b, _ := newBackend(t)
	files, err := b.List(context.Background(), "nope/")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriteMissingSource(t *testing.T) {
	b, _ := newBackend(t)
	err := b.Write(context.Background(), filepath.Join(t.TempDir(), "missing"), "k")
	assert.ErrorIs(t, err, storage.ErrUploadFailed)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
