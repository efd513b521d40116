package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/pkg/params"
)

// MockAbilityExecutor is a mock implementation of AbilityExecutor
type MockAbilityExecutor struct {
	mock.Mock
}

func (m *MockAbilityExecutor) Execute(ctx context.Context, ability string, auth *models.AuthResult, values map[string]params.Value) (interface{}, error) {
	args := m.Called(ctx, ability, auth, values)
	return args.Get(0), args.Error(1)
}
