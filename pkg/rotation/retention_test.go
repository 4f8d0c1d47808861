package rotation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/williamokano/mysql_backuper/pkg/storage"
)

func filesAt(base time.Time, n int) []storage.FileInfo {
	files := make([]storage.FileInfo, n)
	for i := range files {
		files[i] = storage.FileInfo{
			Path:    fmt.Sprintf("f%d", i),
			ModTime: base.Add(time.Duration(i) * time.Hour),
		}
	}
	return files
}

func paths(files []storage.FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}

func TestPlan(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		count    int
		keep     int
		wantKept []string
		wantDrop []string
	}{
		{"keep zero drops all", 3, 0, []string{}, []string{"f2", "f1", "f0"}},
		{"keep some", 5, 2, []string{"f4", "f3"}, []string{"f2", "f1", "f0"}},
		{"keep equals count", 3, 3, []string{"f2", "f1", "f0"}, nil},
		{"keep above count", 3, 5, []string{"f2", "f1", "f0"}, nil},
		{"empty", 0, 3, []string{}, nil},
		{"negative keep drops all", 2, -1, []string{}, []string{"f1", "f0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, drop := Plan(filesAt(base, tt.count), tt.keep)
			assert.Equal(t, tt.wantKept, paths(kept))
			if tt.wantDrop == nil {
				assert.Empty(t, drop)
			} else {
				assert.Equal(t, tt.wantDrop, paths(drop))
			}
		})
	}
}

func TestPlanDeletesMaxOfNMinusK(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for n := 0; n <= 6; n++ {
		for k := 0; k <= 8; k++ {
			_, drop := Plan(filesAt(base, n), k)
			assert.Len(t, drop, max(n-k, 0), "n=%d k=%d", n, k)
		}
	}
}

func TestPlanStableOnTies(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []storage.FileInfo{
		{Path: "a", ModTime: ts},
		{Path: "b", ModTime: ts},
		{Path: "c", ModTime: ts},
	}

	kept, drop := Plan(files, 1)
	assert.Equal(t, []string{"a"}, paths(kept))
	assert.Equal(t, []string{"b", "c"}, paths(drop))
	assert.Equal(t, []string{"a", "b", "c"}, paths(files), "input must not be reordered")
}

func TestOutcomeErr(t *testing.T) {
	assert.NoError(t, Outcome{}.Err())

	o := Outcome{Failures: []Failure{
		{Path: "x", Err: fmt.Errorf("%w: boom", ErrLocalDelete)},
		{Path: "y", Err: errors.New("other")},
	}}
	err := o.Err()
	assert.ErrorIs(t, err, ErrLocalDelete)
	assert.Contains(t, err.Error(), "x")
	assert.Contains(t, err.Error(), "y")
}
