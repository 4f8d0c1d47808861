// Code generated manually. DO NOT EDIT.

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/williamokano/mysql_backuper/pkg/storage"
)

// MockBackend is a mock implementation of the storage.Backend interface
type MockBackend struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (m *MockBackend) Name() string {
	ret := m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Type provides a mock function with given fields:
func (m *MockBackend) Type() string {
	ret := m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Write provides a mock function with given fields: ctx, sourcePath, key
func (m *MockBackend) Write(ctx context.Context, sourcePath string, key string) error {
	ret := m.Called(ctx, sourcePath, key)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		r0 = rf(ctx, sourcePath, key)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// List provides a mock function with given fields: ctx, prefix
func (m *MockBackend) List(ctx context.Context, prefix string) ([]storage.FileInfo, error) {
	ret := m.Called(ctx, prefix)

	var r0 []storage.FileInfo
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]storage.FileInfo, error)); ok {
		return rf(ctx, prefix)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []storage.FileInfo); ok {
		r0 = rf(ctx, prefix)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]storage.FileInfo)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, prefix)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Delete provides a mock function with given fields: ctx, keys
func (m *MockBackend) Delete(ctx context.Context, keys []string) []storage.DeleteFailure {
	ret := m.Called(ctx, keys)

	var r0 []storage.DeleteFailure
	if rf, ok := ret.Get(0).(func(context.Context, []string) []storage.DeleteFailure); ok {
		r0 = rf(ctx, keys)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]storage.DeleteFailure)
		}
	}

	return r0
}

// Close provides a mock function with given fields:
func (m *MockBackend) Close() error {
	ret := m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockBackend creates a new instance of MockBackend
func NewMockBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockBackend {
	mock_1 := &MockBackend{}
	mock_1.Mock.Test(t)

	t.Cleanup(func() { mock_1.AssertExpectations(t) })

	return mock_1
}
