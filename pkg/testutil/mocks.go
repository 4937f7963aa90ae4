package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCopier is a testify mock of executor.Copier.
type MockCopier struct {
	mock.Mock
}

// Copy records the call and returns the configured error.
func (m *MockCopier) Copy(ctx context.Context, sources []string, dest string) error {
	args := m.Called(ctx, sources, dest)
	return args.Error(0)
}

// MockRemover is a testify mock of executor.Remover.
type MockRemover struct {
	mock.Mock
}

// RemoveAll records the call and returns the configured error.
func (m *MockRemover) RemoveAll(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
