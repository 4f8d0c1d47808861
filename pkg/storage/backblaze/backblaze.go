package backblaze

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kurin/blazer/b2"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

type Backend struct {
	name   string
	client *b2.Client
	bucket *b2.Bucket
}

func init() {
	storage.RegisterBackend("backblaze", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(ctx, cfg)
	})
}

// New creates a new Backblaze B2 backend
func New(ctx context.Context, cfg storage.Config) (*Backend, error) {
	b2Cfg, err := parseConfig(cfg.Options)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrInvalidConfig, err)
	}

	client, err := b2.NewClient(ctx, b2Cfg.AccountID, b2Cfg.ApplicationKey)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrAuthFailed, err)
	}

	bucket, err := client.Bucket(ctx, b2Cfg.Bucket)
	if err != nil {
		return nil, storage.WrapError(cfg.Name, "get bucket", storage.ErrInvalidConfig, err)
	}

	return &Backend{
		name:   cfg.Name,
		client: client,
		bucket: bucket,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "backblaze" }

// Write uploads a file to B2 under key
func (b *Backend) Write(ctx context.Context, sourcePath, key string) error {
	file, err := os.Open(sourcePath)
	if err != nil {
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, storage.Classify(err))
	}
	defer file.Close()

	writer := b.bucket.Object(key).NewWriter(ctx)

	if _, err := io.Copy(writer, file); err != nil {
		writer.Close()
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, classify(err))
	}

	if err := writer.Close(); err != nil {
		return storage.WrapError(b.name, "upload", storage.ErrUploadFailed, classify(err))
	}

	return nil
}

// List returns every object under prefix with its upload timestamp
func (b *Backend) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	var files []storage.FileInfo

	iter := b.bucket.List(ctx, b2.ListPrefix(prefix))
	for iter.Next() {
		obj := iter.Object()

		attrs, err := obj.Attrs(ctx)
		if err != nil {
			return nil, storage.WrapError(b.name, "list", storage.ErrListFailed, classify(err))
		}

		files = append(files, storage.FileInfo{
			Path:    obj.Name(),
			Size:    attrs.Size,
			ModTime: attrs.UploadTimestamp,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, storage.WrapError(b.name, "list", storage.ErrListFailed, classify(err))
	}

	return files, nil
}

// Delete removes each key independently
func (b *Backend) Delete(ctx context.Context, keys []string) []storage.DeleteFailure {
	var failures []storage.DeleteFailure

	for _, key := range keys {
		if err := b.bucket.Object(key).Delete(ctx); err != nil {
			failures = append(failures, storage.DeleteFailure{
				Key: key,
				Err: storage.WrapError(b.name, "delete", storage.ErrDeleteFailed, classify(err)),
			})
		}
	}

	return failures
}

// Close releases resources
func (b *Backend) Close() error {
	return nil
}

func classify(err error) error {
	if b2.IsNotExist(err) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	return storage.Classify(err)
}
