// internal/autofix/mocks_test.go
package autofix

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// MockClassifier is a mock implementation of ClassifierInterface.
type MockClassifier struct {
	mock.Mock
}

func (m *MockClassifier) Classify(ctx context.Context, req schemas.ErrorFixRequest) schemas.ErrorAnalysis {
	args := m.Called(ctx, req)
	return args.Get(0).(schemas.ErrorAnalysis)
}

// MockInference is a mock implementation of schemas.InferenceService.
type MockInference struct {
	mock.Mock
}

func (m *MockInference) GenerateFixes(ctx context.Context, req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) ([]schemas.CodeFix, error) {
	args := m.Called(ctx, req, analysis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schemas.CodeFix), args.Error(1)
}

func (m *MockInference) ValidateFix(ctx context.Context, in schemas.ValidationInput) (*schemas.ValidationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.ValidationResult), args.Error(1)
}

// MockQuickInference additionally implements schemas.QuickFixGenerator.
type MockQuickInference struct {
	MockInference
}

func (m *MockQuickInference) GenerateQuickFix(ctx context.Context, req schemas.ErrorFixRequest, analysis schemas.ErrorAnalysis) (*schemas.CodeFix, error) {
	args := m.Called(ctx, req, analysis)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.CodeFix), args.Error(1)
}

// MockCache is a mock implementation of CacheInterface.
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (*schemas.RankedFixResult, bool) {
	args := m.Called(ctx, key)
	result, _ := args.Get(0).(*schemas.RankedFixResult)
	return result, args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value *schemas.RankedFixResult, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
