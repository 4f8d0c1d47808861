package rotation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

// EnforceRemote keeps the keep newest objects under the backend's prefix and
// deletes the rest. Per-key delete failures are recorded in the Outcome; a
// listing failure returns an error and deletes nothing.
func EnforceRemote(ctx context.Context, backend storage.Backend, prefix string, keep int, logger zerolog.Logger) (Outcome, error) {
	listPrefix := storage.ListPrefix(prefix)
	log := logger.With().
		Str("backend", backend.Name()).
		Str("prefix", listPrefix).
		Int("keep", keep).
		Logger()

	objects, err := backend.List(ctx, listPrefix)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to list %s: %w", backend.Name(), err)
	}

	kept, drop := Plan(objects, keep)
	outcome := Outcome{Kept: kept}

	log.Debug().
		Int("object_count", len(objects)).
		Int("to_delete", len(drop)).
		Msg("planned remote retention")

	if len(drop) == 0 {
		return outcome, nil
	}

	keys := make([]string, len(drop))
	for i, obj := range drop {
		keys[i] = obj.Path
	}

	failed := make(map[string]bool)
	for _, f := range backend.Delete(ctx, keys) {
		failed[f.Key] = true
		log.Error().Err(f.Err).Str("key", f.Key).Msg("failed to delete remote backup")
		outcome.Failures = append(outcome.Failures, Failure{Path: f.Key, Err: f.Err})
	}

	for _, key := range keys {
		if failed[key] {
			continue
		}
		log.Info().Str("key", key).Msg("deleted old remote backup")
		outcome.Deleted = append(outcome.Deleted, key)
	}

	return outcome, nil
}
