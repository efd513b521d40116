package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockDelegatedSigner is a mock implementation of DelegatedSigner
type MockDelegatedSigner struct {
	mock.Mock
}

func (m *MockDelegatedSigner) Address(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDelegatedSigner) SignMessage(ctx context.Context, message []byte) (string, error) {
	args := m.Called(ctx, message)
	if fn, ok := args.Get(0).(func(context.Context, []byte) string); ok {
		return fn(ctx, message), args.Error(1)
	}
	return args.String(0), args.Error(1)
}
