package processor

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"docanalyst/internal/domain"
)

// CSV handles comma-separated tables, rendered as aligned text.
type CSV struct{}

// NewCSV creates the CSV processor.
func NewCSV() *CSV { return &CSV{} }

func (p *CSV) Format() string       { return "CSV" }
func (p *CSV) Extensions() []string { return []string{"csv"} }

func (p *CSV) ExtractText(_ context.Context, r io.Reader) (string, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return "", err
	}
	return renderTable(header, rows), nil
}

func (p *CSV) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	header, rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"columns":      header,
		"column_count": len(header),
		"rows":         len(rows),
	}, nil
}

// Split pages over blocks of 50 data rows, repeating the header in every
// chunk; token chunks are built from lines of the rendered table.
func (p *CSV) Split(_ context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	header, rows, err := readCSV(f)
	if err != nil {
		return nil, err
	}
	whole := renderTable(header, rows)

	if opts.Method == domain.SplitMethodPage && opts.ChunkSize >= 1 {
		return csvPageChunks(header, rows, opts.ChunkSize*csvRowsPerPage), nil
	}
	return applyPolicy(opts, whole,
		nil,
		func() (units, error) { return units{items: lines(whole), sep: "\n"}, nil },
	)
}

func csvPageChunks(header []string, rows [][]string, perChunk int) []string {
	if len(rows) == 0 {
		return []string{renderTable(header, nil)}
	}
	var chunks []string
	for start := 0; start < len(rows); start += perChunk {
		end := start + perChunk
		if end > len(rows) {
			end = len(rows)
		}
		chunks = append(chunks, fmt.Sprintf("CSV rows %d-%d:\n%s", start+1, end, renderTable(header, rows[start:end])))
	}
	return chunks
}

func readCSV(r io.Reader) ([]string, [][]string, error) {
	text, _, err := readText(r)
	if err != nil {
		return nil, nil, err
	}
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func renderTable(header []string, rows [][]string) string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	if len(header) > 0 {
		fmt.Fprintln(tw, strings.Join(header, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	return strings.TrimRight(buf.String(), "\n")
}
