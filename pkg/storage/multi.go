package storage

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Target is one upload destination: a backend and the key to write under
type Target struct {
	Backend Backend
	Key     string
}

// MultiUploader handles uploading to multiple backends in parallel
type MultiUploader struct {
	logger zerolog.Logger
	retry  RetryConfig
}

// NewMultiUploader creates a new multi-uploader
func NewMultiUploader(logger zerolog.Logger, retry RetryConfig) *MultiUploader {
	return &MultiUploader{logger: logger, retry: retry}
}

// Upload uploads a file to every target concurrently. Each target is
// independent: a failure is recorded in its Result and never cancels the
// others. Results are returned in target order.
func (m *MultiUploader) Upload(ctx context.Context, targets []Target, sourcePath string) []Result {
	results := make([]Result, len(targets))

	var g errgroup.Group
	for i, target := range targets {
		g.Go(func() error {
			results[i] = m.upload(ctx, target, sourcePath)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *MultiUploader) upload(ctx context.Context, target Target, sourcePath string) Result {
	b := target.Backend
	start := time.Now()

	m.logger.Debug().
		Str("backend", b.Name()).
		Str("type", b.Type()).
		Str("key", target.Key).
		Msg("starting upload")

	attempts, err := WithRetry(ctx, m.retry, func() error {
		return b.Write(ctx, sourcePath, target.Key)
	})
	duration := time.Since(start)

	result := Result{
		BackendName: b.Name(),
		BackendType: b.Type(),
		Key:         target.Key,
		Success:     err == nil,
		Error:       err,
		Duration:    duration,
		Attempts:    attempts,
	}

	if err != nil {
		m.logger.Error().
			Err(err).
			Str("backend", b.Name()).
			Str("key", target.Key).
			Int("attempts", attempts).
			Dur("duration", duration).
			Msg("upload failed")
	} else {
		m.logger.Info().
			Str("backend", b.Name()).
			Str("key", target.Key).
			Dur("duration", duration).
			Msg("upload succeeded")
	}

	return result
}
