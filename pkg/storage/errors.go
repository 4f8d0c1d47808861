package storage

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
)

var (
	ErrAuthFailed       = errors.New("authentication failed")
	ErrConnFailed       = errors.New("connection failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("file not found")
	ErrTimeout          = errors.New("operation timeout")
	ErrInvalidConfig    = errors.New("invalid configuration")

	// Operation kinds, one per remote stage
	ErrUploadFailed = errors.New("upload failed")
	ErrListFailed   = errors.New("remote list failed")
	ErrDeleteFailed = errors.New("remote delete failed")
)

// IsRetryable returns true if error should trigger a retry
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnFailed) || errors.Is(err, ErrTimeout)
}

// IsCritical returns true if error should stop all operations
func IsCritical(err error) bool {
	return errors.Is(err, ErrAuthFailed) || errors.Is(err, ErrInvalidConfig)
}

// WrapError adds backend context and an operation kind to an error
func WrapError(backend, operation string, kind, err error) error {
	return fmt.Errorf("%s (%s): %w: %w", operation, backend, kind, err)
}

// Classify tags transport-level errors with the matching sentinel so
// IsRetryable and IsCritical can see them. Unknown errors are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case errors.Is(err, os.ErrPermission):
		return fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrConnFailed, err)
	}

	return err
}
