package storage_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williamokano/mysql_backuper/pkg/storage"
	"github.com/williamokano/mysql_backuper/pkg/storage/mocks"
)

func TestObjectKey(t *testing.T) {
	const name = "mysql-backup-all-databases-20250101T000000Z.sql.gz"

	tests := []struct {
		prefix string
		want   string
	}{
		{"daily/", "daily/" + name},
		{"daily", "daily/" + name},
		{"daily///", "daily/" + name},
		{"", name},
		{"/", name},
		{"a/b", "a/b/" + name},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("prefix=%q", tt.prefix), func(t *testing.T) {
			assert.Equal(t, tt.want, storage.ObjectKey(tt.prefix, name))
		})
	}
}

func TestListPrefix(t *testing.T) {
	assert.Equal(t, "daily/", storage.ListPrefix("daily"))
	assert.Equal(t, "daily/", storage.ListPrefix("daily//"))
	assert.Equal(t, "", storage.ListPrefix(""))
}

func TestClassify(t *testing.T) {
	assert.NoError(t, storage.Classify(nil))
	assert.ErrorIs(t, storage.Classify(context.DeadlineExceeded), storage.ErrTimeout)
	assert.ErrorIs(t, storage.Classify(os.ErrPermission), storage.ErrPermissionDenied)
	assert.ErrorIs(t, storage.Classify(fmt.Errorf("open: %w", os.ErrNotExist)), storage.ErrNotFound)

	plain := errors.New("plain")
	assert.Same(t, plain, storage.Classify(plain))
}

func TestWrapError(t *testing.T) {
	err := storage.WrapError("s3", "list", storage.ErrListFailed, storage.ErrAuthFailed)
	assert.ErrorIs(t, err, storage.ErrListFailed)
	assert.ErrorIs(t, err, storage.ErrAuthFailed)
	assert.Contains(t, err.Error(), "list (s3)")
}

type fakeCreator struct {
	backends map[string]storage.Backend
	errs     map[string]error
}

func (f *fakeCreator) Create(_ context.Context, cfg storage.Config) (storage.Backend, error) {
	if err, ok := f.errs[cfg.Name]; ok {
		return nil, err
	}
	return f.backends[cfg.Name], nil
}

func TestOpenAll(t *testing.T) {
	good := mocks.NewMockBackend(t)
	good.On("Close").Return(nil).Once()

	creator := &fakeCreator{
		backends: map[string]storage.Backend{"s3": good},
		errs:     map[string]error{"nas": storage.ErrAuthFailed},
	}

	configs := []storage.Config{
		{Name: "s3", Type: "s3", Enabled: true},
		{Name: "nas", Type: "ssh", Enabled: true},
		{Name: "b2", Type: "backblaze", Enabled: false},
	}

	opened, failed := storage.OpenAll(context.Background(), creator, configs)
	require.Len(t, opened, 1)
	assert.Equal(t, "s3", opened[0].Config.Name)
	require.Contains(t, failed, "nas")
	assert.ErrorIs(t, failed["nas"], storage.ErrAuthFailed)
	assert.NotContains(t, failed, "b2")

	storage.CloseAll(opened)
	good.AssertCalled(t, "Close")
}

func TestFactoryUnknownType(t *testing.T) {
	_, err := storage.NewFactory().Create(context.Background(), storage.Config{Name: "x", Type: "ftp", Enabled: true})
	assert.ErrorIs(t, err, storage.ErrInvalidConfig)
}

func TestFactoryDisabled(t *testing.T) {
	_, err := storage.NewFactory().Create(context.Background(), storage.Config{Name: "x", Type: "s3"})
	assert.Error(t, err)
}
