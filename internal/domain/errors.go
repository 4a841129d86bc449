package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound               = errors.New("resource not found")
	ErrUnsupportedFormat      = errors.New("unsupported file format")
	ErrFileTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrEmptyCombineInput      = errors.New("no results to combine")
	ErrUnknownCombineStrategy = errors.New("unknown combine strategy")
	ErrUnknownAnalysisType    = errors.New("unknown analysis type")
	ErrUnknownProvider        = errors.New("unknown AI provider")
	ErrInvalidChunkSize       = errors.New("chunk size must be at least 1")
	ErrEmptyText              = errors.New("text is empty")
	ErrCancelled              = errors.New("processing cancelled")
	ErrUnknownExportFormat    = errors.New("unknown export format")
	ErrBuiltinAnalysisType    = errors.New("built-in analysis types cannot be modified")
	ErrUnsupportedSchema      = errors.New("unsupported history schema version")
)

// UnsupportedFormatError is returned when no processor handles an extension.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Extension == "" {
		return "unsupported file format: file has no extension"
	}
	return fmt.Sprintf("unsupported file format: %s", e.Extension)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// FileProcessingError wraps any failure raised while a processor reads a file.
type FileProcessingError struct {
	Format string
	Stage  Stage
	File   string
	Err    error
}

func (e *FileProcessingError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Format, e.Stage, e.File, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Format, e.Stage, e.Err)
}

func (e *FileProcessingError) Unwrap() error {
	return e.Err
}

// StageError is the orchestrator-level error naming the file and pipeline stage.
type StageError struct {
	File  string
	Stage Stage
	Chunk int // 1-based; zero when the failure is not chunk-specific
	Err   error
}

func (e *StageError) Error() string {
	if e.Chunk > 0 {
		return fmt.Sprintf("%s: %s stage failed on chunk %d: %v", e.File, e.Stage, e.Chunk, e.Err)
	}
	return fmt.Sprintf("%s: %s stage failed: %v", e.File, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// AIServiceError wraps any failure reported by an AI backend.
type AIServiceError struct {
	Provider string
	Err      error
}

func (e *AIServiceError) Error() string {
	return fmt.Sprintf("AI service %s: %v", e.Provider, e.Err)
}

func (e *AIServiceError) Unwrap() error {
	return e.Err
}
