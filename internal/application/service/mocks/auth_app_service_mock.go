// Package mocks provides testify mocks for the application services.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/domain/models"
	domainService "github.com/turtacn/vincent/internal/domain/service"
)

// MockAuthAppService is a mock for the AuthAppService
type MockAuthAppService struct {
	mock.Mock
}

func (m *MockAuthAppService) VerifyToken(ctx context.Context, token string, audience string) (*models.AuthResult, error) {
	args := m.Called(ctx, token, audience)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuthResult), args.Error(1)
}

func (m *MockAuthAppService) CreateToken(ctx context.Context, signer domainService.DelegatedSigner, identity models.SignerIdentity, req *dto.CreateJWTRequest) (*dto.CreateJWTResponse, error) {
	args := m.Called(ctx, signer, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.CreateJWTResponse), args.Error(1)
}

func (m *MockAuthAppService) DecodeToken(token string) (*models.VincentJWT, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VincentJWT), args.Error(1)
}

func (m *MockAuthAppService) ConsentURL(appID string, redirectURI string) (string, error) {
	args := m.Called(appID, redirectURI)
	return args.String(0), args.Error(1)
}

func (m *MockAuthAppService) ExpectedAudience() string {
	args := m.Called()
	return args.String(0)
}
