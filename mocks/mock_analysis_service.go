package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docanalyst/internal/domain"
	"docanalyst/internal/service"
)

// MockAnalysisService is a mock implementation of service.AnalysisService.
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeText(ctx context.Context, input service.AnalyzeTextInput) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

func (m *MockAnalysisService) AnalyzeFile(ctx context.Context, input service.AnalyzeFileInput) (*service.FileOutcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileOutcome), args.Error(1)
}

func (m *MockAnalysisService) AnalyzeBatch(ctx context.Context, input service.BatchInput) (*service.BatchOutcome, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BatchOutcome), args.Error(1)
}

func (m *MockAnalysisService) PreviewSplit(ctx context.Context, path string, opts domain.SplitOptions) (*service.SplitPreview, error) {
	args := m.Called(ctx, path, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SplitPreview), args.Error(1)
}

func (m *MockAnalysisService) NeedsSplit(path string) (bool, error) {
	args := m.Called(path)
	return args.Bool(0), args.Error(1)
}
