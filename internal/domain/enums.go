package domain

import "strings"

// SplitMethod selects how a document is decomposed into chunks.
type SplitMethod string

const (
	SplitMethodPage  SplitMethod = "page"
	SplitMethodToken SplitMethod = "token"
)

// ParseSplitMethod normalizes user input. Unknown values are returned as-is so
// processors can apply their whole-document default.
func ParseSplitMethod(s string) SplitMethod {
	return SplitMethod(strings.ToLower(strings.TrimSpace(s)))
}

// SplitOptions carries the chunking decision made by the caller.
type SplitOptions struct {
	Method    SplitMethod `json:"method"`
	ChunkSize int         `json:"chunk_size"`
}

// CombineStrategy selects how multiple results are merged into one.
type CombineStrategy string

const (
	CombineSequential CombineStrategy = "sequential"
	CombineSummarize  CombineStrategy = "summarize"
)

// BatchMode controls failure isolation across files and chunks.
type BatchMode string

const (
	// BatchModeSeparate isolates failures per file or chunk.
	BatchModeSeparate BatchMode = "separate"
	// BatchModeCombine fails fast because aggregation needs full coverage.
	BatchModeCombine BatchMode = "combine"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageExtract Stage = "extract"
	StageSplit   Stage = "split"
	StageAnalyze Stage = "analyze"
	StageCombine Stage = "combine"
	StageExport  Stage = "export"
)

// FileState is the per-file processing state.
type FileState string

const (
	FileStatePending     FileState = "PENDING"
	FileStateExtracting  FileState = "EXTRACTING"
	FileStateSplitting   FileState = "SPLITTING"
	FileStateAnalyzing   FileState = "ANALYZING"
	FileStateAggregating FileState = "AGGREGATING"
	FileStateDone        FileState = "DONE"
	FileStateFailed      FileState = "FAILED"
)

var fileStateEdges = map[FileState][]FileState{
	FileStatePending:     {FileStateExtracting},
	FileStateExtracting:  {FileStateSplitting, FileStateAnalyzing},
	FileStateSplitting:   {FileStateAnalyzing},
	FileStateAnalyzing:   {FileStateAggregating, FileStateDone},
	FileStateAggregating: {FileStateDone},
}

// IsTerminal reports whether no further transitions are possible.
func (s FileState) IsTerminal() bool {
	return s == FileStateDone || s == FileStateFailed
}

// CanTransitionTo reports whether moving from s to next is a legal edge.
// Any non-terminal state may move to FAILED.
func (s FileState) CanTransitionTo(next FileState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == FileStateFailed {
		return true
	}
	for _, allowed := range fileStateEdges[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ExportFormat is an output format for a finished result.
type ExportFormat string

const (
	ExportTXT  ExportFormat = "txt"
	ExportMD   ExportFormat = "md"
	ExportJSON ExportFormat = "json"
	ExportDOCX ExportFormat = "docx"
	ExportPDF  ExportFormat = "pdf"
)

// ExportFormats lists every supported export format.
var ExportFormats = []ExportFormat{ExportTXT, ExportMD, ExportJSON, ExportDOCX, ExportPDF}

// ParseExportFormat accepts a format name with or without a leading dot.
func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	if f == "markdown" {
		f = ExportMD
	}
	for _, known := range ExportFormats {
		if f == known {
			return f, nil
		}
	}
	return "", ErrUnknownExportFormat
}
