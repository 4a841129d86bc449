package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docanalyst/internal/analyzer"
	"docanalyst/internal/domain"
	"docanalyst/internal/handler"
	"docanalyst/internal/prompt"
	"docanalyst/mocks"
)

func TestMapDomainError(t *testing.T) {
	rl := analyzer.NewRateLimitError("claude", errors.New("429"), 0)
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported format", &domain.UnsupportedFormatError{Extension: "bmp"}, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT"},
		{"not found", fmt.Errorf("get: %w", domain.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"empty combine", domain.ErrEmptyCombineInput, http.StatusBadRequest, "EMPTY_COMBINE_INPUT"},
		{"unknown strategy", fmt.Errorf("%w: vote", domain.ErrUnknownCombineStrategy), http.StatusBadRequest, "UNKNOWN_COMBINE_STRATEGY"},
		{"rate limited", &domain.AIServiceError{Provider: "claude", Err: rl}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"ai service", &domain.StageError{File: "a", Stage: domain.StageAnalyze, Err: &domain.AIServiceError{Provider: "openai", Err: errors.New("500")}}, http.StatusBadGateway, "AI_SERVICE_ERROR"},
		{"file processing", &domain.FileProcessingError{Format: "PDF", Stage: domain.StageExtract, Err: errors.New("bad xref")}, http.StatusUnprocessableEntity, "FILE_PROCESSING_ERROR"},
		{"unknown type", domain.ErrUnknownAnalysisType, http.StatusBadRequest, "UNKNOWN_ANALYSIS_TYPE"},
		{"unknown provider", domain.ErrUnknownProvider, http.StatusBadRequest, "UNKNOWN_PROVIDER"},
		{"chunk size", domain.ErrInvalidChunkSize, http.StatusBadRequest, "INVALID_CHUNK_SIZE"},
		{"empty text", domain.ErrEmptyText, http.StatusBadRequest, "EMPTY_TEXT"},
		{"export format", domain.ErrUnknownExportFormat, http.StatusBadRequest, "UNKNOWN_EXPORT_FORMAT"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
		{"cancelled", fmt.Errorf("%w: %w", domain.ErrCancelled, context.Canceled), 499, "CANCELLED"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	store := new(mocks.MockHistoryService)
	h := handler.NewHealthHandler(store)
	r := gin.New()
	r.GET("/healthz", h.Liveness)
	r.GET("/readyz", h.Readiness)

	w := serve(r, get("/healthz"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	store.On("Ping", mock.Anything).Return(nil).Once()
	w = serve(r, get("/readyz"))
	assert.Equal(t, http.StatusOK, w.Code)

	store.On("Ping", mock.Anything).Return(errors.New("closed")).Once()
	w = serve(r, get("/readyz"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unavailable")
}

type fakeExtensions []string

func (f fakeExtensions) Extensions() []string { return f }

func TestCatalogHandler(t *testing.T) {
	h := handler.NewCatalogHandler(fakeExtensions{"csv", "pdf", "txt"}, prompt.NewResolver(), []string{"claude", "openai"})
	r := gin.New()
	r.GET("/formats", h.Formats)
	r.GET("/analysis-types", h.AnalysisTypes)

	w := serve(r, get("/formats"))
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w).Data.(map[string]any)
	assert.Equal(t, []any{"csv", "pdf", "txt"}, data["extensions"])
	assert.Equal(t, []any{"txt", "md", "json", "docx", "pdf"}, data["export_formats"])
	assert.Equal(t, []any{"claude", "openai"}, data["providers"])
	assert.Len(t, data["combine_strategies"], 2)

	w = serve(r, get("/analysis-types"))
	assert.Equal(t, http.StatusOK, w.Code)
	types := decode(t, w).Data.([]any)
	assert.NotEmpty(t, types)
	var names []string
	for _, tp := range types {
		names = append(names, tp.(map[string]any)["name"].(string))
	}
	assert.Contains(t, names, "Summary")
}
