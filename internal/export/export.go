// Package export renders analysis results into downloadable documents.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"docanalyst/internal/domain"
)

// timestampLayout formats result timestamps in every export format.
const timestampLayout = "2006-01-02 15:04:05"

// Export writes r to w in format.
func Export(w io.Writer, r *domain.AnalysisResult, format domain.ExportFormat) error {
	var err error
	switch format {
	case domain.ExportTXT:
		err = writeText(w, r)
	case domain.ExportMD:
		err = writeMarkdown(w, r)
	case domain.ExportJSON:
		err = writeJSON(w, r)
	case domain.ExportDOCX:
		err = writeDOCX(w, r)
	case domain.ExportPDF:
		err = writePDF(w, r)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownExportFormat, format)
	}
	if err != nil {
		return fmt.Errorf("exporting %s as %s: %w", r.FileName, format, err)
	}
	return nil
}

// ContentType returns the MIME type of an export format.
func ContentType(format domain.ExportFormat) string {
	switch format {
	case domain.ExportTXT:
		return "text/plain; charset=utf-8"
	case domain.ExportMD:
		return "text/markdown; charset=utf-8"
	case domain.ExportJSON:
		return "application/json"
	case domain.ExportDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case domain.ExportPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// FileName builds the download name for r, e.g. "report_analysis.pdf".
func FileName(r *domain.AnalysisResult, format domain.ExportFormat) string {
	base := strings.TrimSuffix(r.FileName, filepath.Ext(r.FileName))
	base = SanitizeFilename(base)
	if base == "" {
		base = "result"
	}
	return fmt.Sprintf("%s_analysis.%s", base, format)
}

// header lists the labelled metadata lines shared by the document formats.
func header(r *domain.AnalysisResult) [][2]string {
	lines := [][2]string{
		{"File", r.FileName},
		{"Analysis type", r.AnalysisType},
	}
	if r.Provider != "" {
		lines = append(lines, [2]string{"Provider", r.Provider})
	}
	if r.ChunkCount > 0 {
		lines = append(lines, [2]string{"Chunk", fmt.Sprintf("%d of %d", r.ChunkIndex, r.ChunkCount)})
	}
	return append(lines, [2]string{"Date", formatTimestamp(r.Timestamp)})
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}
