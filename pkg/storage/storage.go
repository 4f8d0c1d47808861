package storage

import (
	"context"
	"strings"
	"time"
)

// Backend represents a remote destination that can store and manage backup artifacts
type Backend interface {
	// Name returns a human-readable name for this backend (e.g., "s3", "nas_mirror")
	Name() string

	// Type returns the backend type (s3, backblaze, ssh, local)
	Type() string

	// Write uploads a file from local filesystem to the backend
	// sourcePath: path to the local artifact
	// key: object key in backend (e.g., "daily/mysql-backup-shop-20250101T000000Z.sql.gz")
	Write(ctx context.Context, sourcePath string, key string) error

	// List returns every object under prefix, all pages aggregated. An empty
	// prefix lists the whole backend. Order is unspecified.
	List(ctx context.Context, prefix string) ([]FileInfo, error)

	// Delete removes the given keys. Every key is attempted; the keys that
	// could not be removed are returned, each with its own error.
	Delete(ctx context.Context, keys []string) []DeleteFailure

	// Close releases resources (connections, sessions)
	Close() error
}

// FileInfo represents metadata about a stored file
type FileInfo struct {
	Path    string    // Object key (remote) or file path (local)
	Size    int64     // Size in bytes
	ModTime time.Time // Last modification time, store-assigned for remotes
}

// DeleteFailure is one key a backend failed to remove
type DeleteFailure struct {
	Key string
	Err error
}

// Config represents storage backend configuration
type Config struct {
	Name      string                 `json:"name"`      // User-friendly name (e.g., "s3")
	Type      string                 `json:"type"`      // Backend type: local, s3, backblaze, ssh
	Enabled   bool                   `json:"enabled"`   // Whether this backend is active
	Prefix    string                 `json:"prefix"`    // Key prefix uploads and retention work under
	Retention bool                   `json:"retention"` // Whether remote retention runs on this backend
	Options   map[string]interface{} `json:"options"`   // Backend-specific options
}

// Result represents outcome of an upload
type Result struct {
	BackendName string
	BackendType string
	Key         string
	Success     bool
	Error       error
	Duration    time.Duration
	Attempts    int
}

// ObjectKey computes the remote key for an artifact. Trailing slashes on
// prefix are stripped; an empty prefix yields the bare filename.
func ObjectKey(prefix, filename string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return filename
	}
	return prefix + "/" + filename
}

// ListPrefix returns the listing prefix for a configured key prefix: the
// prefix as a directory ("daily/"), or "" for the whole backend.
func ListPrefix(prefix string) string {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
