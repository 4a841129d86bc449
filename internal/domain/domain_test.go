package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/domain"
)

func TestFileState_Transitions(t *testing.T) {
	tests := []struct {
		from, to domain.FileState
		want     bool
	}{
		{domain.FileStatePending, domain.FileStateExtracting, true},
		{domain.FileStateExtracting, domain.FileStateAnalyzing, true},
		{domain.FileStateExtracting, domain.FileStateSplitting, true},
		{domain.FileStateSplitting, domain.FileStateAnalyzing, true},
		{domain.FileStateAnalyzing, domain.FileStateAggregating, true},
		{domain.FileStateAnalyzing, domain.FileStateDone, true},
		{domain.FileStateAggregating, domain.FileStateDone, true},
		{domain.FileStateAnalyzing, domain.FileStateFailed, true},
		{domain.FileStatePending, domain.FileStateDone, false},
		{domain.FileStateSplitting, domain.FileStateExtracting, false},
		{domain.FileStateDone, domain.FileStateFailed, false},
		{domain.FileStateFailed, domain.FileStatePending, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s->%s", tt.from, tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseExportFormat(t *testing.T) {
	for in, want := range map[string]domain.ExportFormat{
		"txt":      domain.ExportTXT,
		".PDF":     domain.ExportPDF,
		"markdown": domain.ExportMD,
		" docx ":   domain.ExportDOCX,
	} {
		got, err := domain.ParseExportFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := domain.ParseExportFormat("rtf")
	assert.ErrorIs(t, err, domain.ErrUnknownExportFormat)
}

func TestErrorsUnwrap(t *testing.T) {
	inner := &domain.AIServiceError{Provider: "openai", Err: errors.New("boom")}
	err := &domain.StageError{File: "a.txt", Stage: domain.StageAnalyze, Chunk: 2, Err: inner}

	var ai *domain.AIServiceError
	require.ErrorAs(t, err, &ai)
	assert.Equal(t, "a.txt: analyze stage failed on chunk 2: AI service openai: boom", err.Error())

	unsupported := &domain.UnsupportedFormatError{Extension: "exe"}
	assert.ErrorIs(t, unsupported, domain.ErrUnsupportedFormat)
	assert.Equal(t, "unsupported file format: file has no extension", (&domain.UnsupportedFormatError{}).Error())
}

func TestNewHistoryEntry(t *testing.T) {
	r := &domain.AnalysisResult{
		ID:           uuid.New(),
		FileName:     "a.txt",
		AnalysisType: "Summary",
		AnalyzedText: "ok",
	}

	e := domain.NewHistoryEntry(r)

	assert.Equal(t, domain.HistorySchemaVersion, e.SchemaVersion)
	assert.Equal(t, r.ID, e.ID)
	assert.Equal(t, "ok", e.Summary)
	assert.Same(t, r, e.Result)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", domain.Truncate("abc", 3))
	assert.Equal(t, "ğü...", domain.Truncate("ğüş", 2))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, domain.StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", domain.StripCodeFences("  plain "))
}
