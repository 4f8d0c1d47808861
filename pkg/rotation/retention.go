package rotation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

// ErrLocalDelete marks a local artifact that could not be removed
var ErrLocalDelete = errors.New("local delete failed")

// Failure is one item retention could not delete
type Failure struct {
	Path string
	Err  error
}

// Outcome is the result of one retention pass
type Outcome struct {
	Kept     []storage.FileInfo
	Deleted  []string
	Failures []Failure
}

// Err joins every failure, or returns nil when all deletions succeeded
func (o Outcome) Err() error {
	errs := make([]error, 0, len(o.Failures))
	for _, f := range o.Failures {
		errs = append(errs, fmt.Errorf("%s: %w", f.Path, f.Err))
	}
	return errors.Join(errs...)
}

// Plan orders files newest first and splits them into the keep newest and
// the rest. Files with equal timestamps keep their input order. The input
// slice is not modified.
func Plan(files []storage.FileInfo, keep int) (kept, drop []storage.FileInfo) {
	sorted := make([]storage.FileInfo, len(files))
	copy(sorted, files)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModTime.After(sorted[j].ModTime)
	})

	if keep < 0 {
		keep = 0
	}
	if keep >= len(sorted) {
		return sorted, nil
	}

	return sorted[:keep], sorted[keep:]
}
