package rotation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

// ListLocal returns the regular files directly inside dir in name order.
// Directories, symlinks and other special entries are skipped.
func ListLocal(dir string) ([]storage.FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup directory: %w", err)
	}

	var files []storage.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // removed since ReadDir
		}

		files = append(files, storage.FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

// EnforceLocal keeps the keep most recently modified files in dir and
// deletes the rest. Each deletion is independent; failures are recorded in
// the Outcome. Only a listing failure returns an error.
func EnforceLocal(dir string, keep int, logger zerolog.Logger) (Outcome, error) {
	log := logger.With().Str("dir", dir).Int("keep", keep).Logger()

	files, err := ListLocal(dir)
	if err != nil {
		return Outcome{}, err
	}

	kept, drop := Plan(files, keep)
	outcome := Outcome{Kept: kept}

	log.Debug().
		Int("file_count", len(files)).
		Int("to_delete", len(drop)).
		Msg("planned local retention")

	for _, f := range drop {
		if err := os.Remove(f.Path); err != nil {
			log.Error().Err(err).Str("file", f.Path).Msg("failed to delete local backup")
			outcome.Failures = append(outcome.Failures, Failure{
				Path: f.Path,
				Err:  fmt.Errorf("%w: %w", ErrLocalDelete, err),
			})
			continue
		}

		log.Info().
			Str("file", f.Path).
			Str("size", humanize.Bytes(uint64(f.Size))).
			Msg("deleted old local backup")
		outcome.Deleted = append(outcome.Deleted, f.Path)
	}

	return outcome, nil
}
