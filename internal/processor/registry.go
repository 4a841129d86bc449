package processor

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"docanalyst/internal/domain"
	"docanalyst/internal/port"
)

// Registry maps lower-case file extensions to processors.
type Registry struct {
	byExt map[string]Processor
}

// NewRegistry creates a registry holding the given processors.
func NewRegistry(procs ...Processor) *Registry {
	r := &Registry{byExt: make(map[string]Processor)}
	for _, p := range procs {
		r.Register(p)
	}
	return r
}

// NewDefaultRegistry registers every built-in format. A nil OCR engine or
// transcriber leaves image or audio extraction failing with a processing
// error while metadata keeps working.
func NewDefaultRegistry(ocr port.OCREngine, transcriber port.Transcriber) *Registry {
	return NewRegistry(
		NewPDF(),
		NewDOCX(),
		NewSpreadsheet(),
		NewLegacySpreadsheet(),
		NewText(),
		NewJSON(),
		NewCSV(),
		NewHTML(),
		NewXML(),
		NewEPUB(),
		NewImage(ocr),
		NewAudio(transcriber),
	)
}

// Register adds p under each of its extensions, replacing any previous owner.
func (r *Registry) Register(p Processor) {
	g := guard(p)
	for _, ext := range p.Extensions() {
		r.byExt[strings.ToLower(ext)] = g
	}
}

// For resolves the processor for filename by its extension.
func (r *Registry) For(filename string) (Processor, error) {
	ext := Ext(filename)
	p, ok := r.byExt[ext]
	if !ok {
		return nil, &domain.UnsupportedFormatError{Extension: ext}
	}
	return p, nil
}

// Extensions lists every supported extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Ext returns the lower-case extension of filename without the dot.
func Ext(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// guarded converts every error and library panic into a FileProcessingError.
type guarded struct {
	Processor
}

func guard(p Processor) Processor {
	if g, ok := p.(guarded); ok {
		return g
	}
	return guarded{Processor: p}
}

func (g guarded) ExtractText(ctx context.Context, r io.Reader) (text string, err error) {
	defer g.catch(domain.StageExtract, &err)
	text, err = g.Processor.ExtractText(ctx, r)
	return text, g.wrap(domain.StageExtract, err)
}

func (g guarded) Metadata(ctx context.Context, r io.Reader) (meta map[string]any, err error) {
	defer g.catch(domain.StageExtract, &err)
	meta, err = g.Processor.Metadata(ctx, r)
	return meta, g.wrap(domain.StageExtract, err)
}

func (g guarded) Split(ctx context.Context, path string, opts domain.SplitOptions) (chunks []string, err error) {
	defer g.catch(domain.StageSplit, &err)
	chunks, err = g.Processor.Split(ctx, path, opts)
	if err != nil {
		return nil, g.wrapFile(domain.StageSplit, filepath.Base(path), err)
	}
	return chunks, nil
}

func (g guarded) catch(stage domain.Stage, errp *error) {
	if rec := recover(); rec != nil {
		*errp = &domain.FileProcessingError{
			Format: g.Format(),
			Stage:  stage,
			Err:    fmt.Errorf("malformed input: %v", rec),
		}
	}
}

func (g guarded) wrap(stage domain.Stage, err error) error {
	return g.wrapFile(stage, "", err)
}

func (g guarded) wrapFile(stage domain.Stage, file string, err error) error {
	if err == nil {
		return nil
	}
	if fpe, ok := err.(*domain.FileProcessingError); ok {
		return fpe
	}
	return &domain.FileProcessingError{Format: g.Format(), Stage: stage, File: file, Err: err}
}
