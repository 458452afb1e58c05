// internal/mcp/mocks_test.go
package mcp

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/remedy/api/schemas"
)

// MockFixer is a mock implementation of autofix.FixerInterface.
type MockFixer struct {
	mock.Mock
}

func (m *MockFixer) Fix(ctx context.Context, req schemas.ErrorFixRequest) (*schemas.RankedFixResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.RankedFixResult), args.Error(1)
}

func (m *MockFixer) QuickFix(ctx context.Context, req schemas.ErrorFixRequest) (*schemas.RankedFixResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.RankedFixResult), args.Error(1)
}

func (m *MockFixer) Validate(ctx context.Context, in schemas.ValidationInput) (*schemas.ValidationResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*schemas.ValidationResult), args.Error(1)
}

// MockBatch is a mock implementation of BatchFixer.
type MockBatch struct {
	mock.Mock
}

func (m *MockBatch) FixAll(ctx context.Context, items []schemas.BatchItem, prioritizeBy string) *schemas.BatchResult {
	args := m.Called(ctx, items, prioritizeBy)
	return args.Get(0).(*schemas.BatchResult)
}

// MockDiagnoser is a mock implementation of Diagnoser.
type MockDiagnoser struct {
	mock.Mock
}

func (m *MockDiagnoser) Analyze(code, language string, checkTypes []string) []schemas.Diagnostic {
	args := m.Called(code, language, checkTypes)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]schemas.Diagnostic)
}
