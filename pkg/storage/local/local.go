package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

type Backend struct {
	name     string
	basePath string
}

func init() {
	storage.RegisterBackend("local", func(ctx context.Context, cfg storage.Config) (storage.Backend, error) {
		return New(cfg)
	})
}

// New creates a new local filesystem backend
func New(cfg storage.Config) (*Backend, error) {
	path, ok := cfg.Options["path"].(string)
	if !ok || path == "" {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrInvalidConfig,
			fmt.Errorf("missing required option: path"))
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, storage.WrapError(cfg.Name, "init", storage.ErrPermissionDenied, err)
	}

	return &Backend{
		name:     cfg.Name,
		basePath: path,
	}, nil
}

func (b *Backend) Name() string { return b.name }
func (b *Backend) Type() string { return "local" }

// Write copies a file to the backend under key
func (b *Backend) Write(ctx context.Context, sourcePath, key string) error {
	destFullPath := filepath.Join(b.basePath, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(destFullPath), 0755); err != nil {
		return storage.WrapError(b.name, "write", storage.ErrUploadFailed, storage.Classify(err))
	}

	source, err := os.Open(sourcePath)
	if err != nil {
		return storage.WrapError(b.name, "write", storage.ErrUploadFailed, storage.Classify(err))
	}
	defer source.Close()

	partPath := destFullPath + ".part"
	dest, err := os.Create(partPath)
	if err != nil {
		return storage.WrapError(b.name, "write", storage.ErrUploadFailed, storage.Classify(err))
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(partPath)
		return storage.WrapError(b.name, "write", storage.ErrUploadFailed, storage.Classify(err))
	}
	if err := dest.Close(); err != nil {
		os.Remove(partPath)
		return storage.WrapError(b.name, "write", storage.ErrUploadFailed, storage.Classify(err))
	}

	if err := os.Rename(partPath, destFullPath); err != nil {
		os.Remove(partPath)
		return storage.WrapError(b.name, "write", storage.ErrUploadFailed, storage.Classify(err))
	}

	return nil
}

// List returns the regular files directly under prefix, as keys
func (b *Backend) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	dir := strings.TrimRight(prefix, "/")

	entries, err := os.ReadDir(filepath.Join(b.basePath, filepath.FromSlash(dir)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, storage.WrapError(b.name, "list", storage.ErrListFailed, storage.Classify(err))
	}

	var files []storage.FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), ".part") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // removed since ReadDir
		}

		files = append(files, storage.FileInfo{
			Path:    storage.ObjectKey(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

// Delete removes each key independently
func (b *Backend) Delete(ctx context.Context, keys []string) []storage.DeleteFailure {
	var failures []storage.DeleteFailure

	for _, key := range keys {
		if err := os.Remove(filepath.Join(b.basePath, filepath.FromSlash(key))); err != nil {
			failures = append(failures, storage.DeleteFailure{
				Key: key,
				Err: storage.WrapError(b.name, "delete", storage.ErrDeleteFailed, storage.Classify(err)),
			})
		}
	}

	return failures
}

// Close is a no-op for local backend
func (b *Backend) Close() error {
	return nil
}
