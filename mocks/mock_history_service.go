package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docanalyst/internal/domain"
	"docanalyst/internal/service"
)

// MockHistoryService is a mock implementation of service.HistoryService.
type MockHistoryService struct {
	mock.Mock
}

func (m *MockHistoryService) List(ctx context.Context, filter domain.HistoryFilter) ([]*domain.HistoryEntry, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.HistoryEntry), args.Int(1), args.Error(2)
}

func (m *MockHistoryService) Get(ctx context.Context, id uuid.UUID) (*domain.HistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockHistoryService) Combine(ctx context.Context, ids []uuid.UUID, strategy domain.CombineStrategy) (*domain.AnalysisResult, error) {
	args := m.Called(ctx, ids, strategy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisResult), args.Error(1)
}

// WriteCSV writes the first return value, when it is a string, to w.
func (m *MockHistoryService) WriteCSV(ctx context.Context, w io.Writer, filter domain.HistoryFilter) error {
	args := m.Called(ctx, w, filter)
	if s, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, s)
	}
	return args.Error(1)
}

func (m *MockHistoryService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Render(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*service.RenderedExport, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RenderedExport), args.Error(1)
}

func (m *MockExportService) Store(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*service.StoredExport, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StoredExport), args.Error(1)
}

func (m *MockExportService) Unstore(ctx context.Context, id uuid.UUID, format domain.ExportFormat) error {
	args := m.Called(ctx, id, format)
	return args.Error(0)
}
