package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
)

// MockJWTService is a mock implementation of JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) CreateSignedJWT(ctx context.Context, cfg service.CreateJWTConfig) (string, error) {
	args := m.Called(ctx, cfg)
	return args.String(0), args.Error(1)
}

func (m *MockJWTService) VerifyJWT(ctx context.Context, token string, expectedAudience string) (*models.VincentJWT, error) {
	args := m.Called(ctx, token, expectedAudience)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VincentJWT), args.Error(1)
}

func (m *MockJWTService) DecodeJWT(token string) (*models.VincentJWT, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VincentJWT), args.Error(1)
}
