package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"docanalyst/internal/domain"
)

var errLegacyWorkbook = errors.New("legacy binary .xls workbooks are not supported; save the file as .xlsx")

// Spreadsheet reads the first sheet of an Excel workbook as tab-separated rows.
type Spreadsheet struct {
	legacy bool
}

// NewSpreadsheet creates the .xlsx processor.
func NewSpreadsheet() *Spreadsheet { return &Spreadsheet{} }

// NewLegacySpreadsheet creates the .xls processor, which reports every read
// as a processing error.
func NewLegacySpreadsheet() *Spreadsheet { return &Spreadsheet{legacy: true} }

func (p *Spreadsheet) Format() string {
	if p.legacy {
		return "XLS"
	}
	return "XLSX"
}

func (p *Spreadsheet) Extensions() []string {
	if p.legacy {
		return []string{"xls"}
	}
	return []string{"xlsx"}
}

func (p *Spreadsheet) ExtractText(_ context.Context, r io.Reader) (string, error) {
	f, err := p.open(r)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return firstSheetText(f)
}

func (p *Spreadsheet) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	f, err := p.open(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	meta := map[string]any{
		"sheets":      sheets,
		"sheet_count": len(sheets),
		"rows":        0,
		"columns":     0,
	}
	if len(sheets) == 0 {
		return meta, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	meta["rows"] = len(rows)
	meta["columns"] = cols
	return meta, nil
}

// Split always returns the first sheet as a single chunk.
func (p *Spreadsheet) Split(ctx context.Context, path string, _ domain.SplitOptions) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	text, err := p.ExtractText(ctx, fh)
	if err != nil {
		return nil, err
	}
	return []string{text}, nil
}

func (p *Spreadsheet) open(r io.Reader) (*excelize.File, error) {
	if p.legacy {
		return nil, errLegacyWorkbook
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	return f, nil
}

func firstSheetText(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, strings.Join(row, "\t"))
	}
	return strings.Join(out, "\n"), nil
}
