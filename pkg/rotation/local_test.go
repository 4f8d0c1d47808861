package rotation

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeArtifacts creates n files with strictly increasing mtimes and returns
// their paths oldest first.
func makeArtifacts(t *testing.T, dir string, n int) []string {
	t.Helper()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	var created []string
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * 24 * time.Hour)
		path := filepath.Join(dir, ArtifactName([]string{"shop"}, ts))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("backup %d", i)), 0o644))
		require.NoError(t, os.Chtimes(path, ts, ts))
		created = append(created, path)
	}
	return created
}

func remaining(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestEnforceLocal(t *testing.T) {
	t.Run("keep_zero_deletes_everything", func(t *testing.T) {
		dir := t.TempDir()
		makeArtifacts(t, dir, 5)

		outcome, err := EnforceLocal(dir, 0, zerolog.Nop())
		require.NoError(t, err)
		assert.Len(t, outcome.Deleted, 5)
		assert.Empty(t, outcome.Kept)
		assert.Empty(t, remaining(t, dir))
	})

	t.Run("keeps_newest", func(t *testing.T) {
		dir := t.TempDir()
		created := makeArtifacts(t, dir, 5)

		outcome, err := EnforceLocal(dir, 2, zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, outcome.Failures)
		assert.ElementsMatch(t, created[:3], outcome.Deleted)
		assert.ElementsMatch(t, []string{filepath.Base(created[3]), filepath.Base(created[4])}, remaining(t, dir))
	})

	t.Run("keep_above_count_deletes_nothing", func(t *testing.T) {
		dir := t.TempDir()
		makeArtifacts(t, dir, 3)

		outcome, err := EnforceLocal(dir, 5, zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, outcome.Deleted)
		assert.Len(t, remaining(t, dir), 3)
	})

	t.Run("idempotent", func(t *testing.T) {
		dir := t.TempDir()
		makeArtifacts(t, dir, 4)

		_, err := EnforceLocal(dir, 2, zerolog.Nop())
		require.NoError(t, err)
		after := remaining(t, dir)

		outcome, err := EnforceLocal(dir, 2, zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, outcome.Deleted)
		assert.Equal(t, after, remaining(t, dir))
	})

	t.Run("ignores_directories_and_symlinks", func(t *testing.T) {
		dir := t.TempDir()
		created := makeArtifacts(t, dir, 2)
		require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))
		require.NoError(t, os.Symlink(created[0], filepath.Join(dir, "latest.sql.gz")))

		outcome, err := EnforceLocal(dir, 0, zerolog.Nop())
		require.NoError(t, err)
		assert.Len(t, outcome.Deleted, 2)
		assert.ElementsMatch(t, []string{"archive", "latest.sql.gz"}, remaining(t, dir))
	})

	t.Run("missing_directory_is_error", func(t *testing.T) {
		_, err := EnforceLocal(filepath.Join(t.TempDir(), "missing"), 1, zerolog.Nop())
		assert.Error(t, err)
	})
}

func TestEnforceLocalRecordsFailures(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}

	dir := t.TempDir()
	makeArtifacts(t, dir, 3)
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	outcome, err := EnforceLocal(dir, 1, zerolog.Nop())
	require.NoError(t, err)
	assert.Empty(t, outcome.Deleted)
	require.Len(t, outcome.Failures, 2)
	for _, f := range outcome.Failures {
		assert.ErrorIs(t, f.Err, ErrLocalDelete)
	}
	assert.ErrorIs(t, outcome.Err(), ErrLocalDelete)
}
