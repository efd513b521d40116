package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// MockMetrics is a mock implementation of Metrics
type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordTokenCreate(success bool, duration time.Duration, errorCode string) {
	m.Called(success, duration, errorCode)
}

func (m *MockMetrics) RecordTokenVerify(success bool, duration time.Duration, errorCode string) {
	m.Called(success, duration, errorCode)
}

func (m *MockMetrics) RecordParamValidation(paramType string, valid bool) {
	m.Called(paramType, valid)
}

func (m *MockMetrics) RecordRateLimitHit(scope string) {
	m.Called(scope)
}

func (m *MockMetrics) RecordCacheAccess(cacheType string, hit bool) {
	m.Called(cacheType, hit)
}
