package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"docanalyst/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// historyColumns defines the CSV header row of a history listing.
var historyColumns = []string{
	"ID",
	"File Name",
	"File Type",
	"Analysis Type",
	"Provider",
	"Summary",
	"Created At",
}

// CSVWriter wraps csv.Writer for exporting history entries as CSV.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes CSV to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(historyColumns)
}

// WriteEntries converts history entries to CSV rows and writes them.
func (w *CSVWriter) WriteEntries(entries []*domain.HistoryEntry) error {
	for _, e := range entries {
		if err := w.csv.Write(entryToRow(e)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteHistoryCSV writes a BOM, the header row and one row per entry.
func WriteHistoryCSV(w io.Writer, entries []*domain.HistoryEntry) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := NewCSVWriter(w)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteEntries(entries); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func entryToRow(e *domain.HistoryEntry) []string {
	return []string{
		e.ID.String(),
		e.FileName,
		e.FileType,
		e.AnalysisType,
		e.Provider,
		strings.ReplaceAll(e.Summary, "\n", " "),
		e.CreatedAt.Format(time.RFC3339),
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized CSV filename for Content-Disposition.
// Format: {sanitized_name}_{YYYY-MM-DD}.csv
func BuildFilename(name string) string {
	sanitized := SanitizeFilename(name)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.csv", sanitized, date)
}
