package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExtractedDocument is the normalized output of a format processor.
type ExtractedDocument struct {
	FileName string         `json:"file_name"`
	Format   string         `json:"format"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// AnalysisResult is the outcome of analysing one text unit, or of combining
// several results.
type AnalysisResult struct {
	ID           uuid.UUID      `json:"id"`
	FileName     string         `json:"file_name"`
	FileType     string         `json:"file_type"`
	AnalysisType string         `json:"analysis_type"`
	Provider     string         `json:"provider,omitempty"`
	Model        string         `json:"model,omitempty"`
	OriginalText string         `json:"original_text"`
	AnalyzedText string         `json:"analyzed_text"`
	Metadata     map[string]any `json:"metadata"`
	ChunkIndex   int            `json:"chunk_index,omitempty"`
	ChunkCount   int            `json:"chunk_count,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// HistorySchemaVersion is the current on-disk version of HistoryEntry.
const HistorySchemaVersion = 1

// HistoryEntry is a persisted analysis record.
type HistoryEntry struct {
	SchemaVersion int             `json:"schema_version"`
	ID            uuid.UUID       `json:"id"`
	FileName      string          `json:"file_name"`
	FileType      string          `json:"file_type"`
	AnalysisType  string          `json:"analysis_type"`
	Provider      string          `json:"provider"`
	Summary       string          `json:"summary"`
	CreatedAt     time.Time       `json:"created_at"`
	Result        *AnalysisResult `json:"result"`
}

// HistorySummaryLength is the number of characters kept in HistoryEntry.Summary.
const HistorySummaryLength = 200

// NewHistoryEntry builds a current-version entry from a result.
func NewHistoryEntry(r *AnalysisResult) *HistoryEntry {
	return &HistoryEntry{
		SchemaVersion: HistorySchemaVersion,
		ID:            r.ID,
		FileName:      r.FileName,
		FileType:      r.FileType,
		AnalysisType:  r.AnalysisType,
		Provider:      r.Provider,
		Summary:       Truncate(r.AnalyzedText, HistorySummaryLength),
		CreatedAt:     r.Timestamp,
		Result:        r,
	}
}

// HistoryFilter narrows a history listing. Empty fields match everything.
type HistoryFilter struct {
	FileType     string
	AnalysisType string
	Provider     string
	Offset       int
	Limit        int
}

// AnalysisType describes a prompt template selectable by name.
type AnalysisType struct {
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	PromptTemplate string `json:"prompt_template,omitempty" yaml:"prompt_template"`
	Builtin        bool   `json:"builtin" yaml:"-"`
}

// Truncate returns the first n runes of s, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// StripCodeFences removes markdown code fences such as ```json from model output.
func StripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
