package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docanalyst/internal/domain"
)

// PDF extracts text page by page.
type PDF struct{}

// NewPDF creates the PDF processor.
func NewPDF() *PDF { return &PDF{} }

func (p *PDF) Format() string       { return "PDF" }
func (p *PDF) Extensions() []string { return []string{"pdf"} }

func (p *PDF) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	reader, err := openPDF(r)
	if err != nil {
		return "", err
	}
	pages, err := pdfPages(ctx, reader)
	if err != nil {
		return "", err
	}
	return strings.Join(pages, "\n\n"), nil
}

func (p *PDF) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	reader, err := openPDF(r)
	if err != nil {
		return nil, err
	}
	meta := map[string]any{"page_count": reader.NumPage()}
	info := reader.Trailer().Key("Info")
	for key, name := range map[string]string{
		"author":   "Author",
		"title":    "Title",
		"subject":  "Subject",
		"creator":  "Creator",
		"producer": "Producer",
	} {
		meta[key] = info.Key(name).Text()
	}
	return meta, nil
}

// Split pages over PDF pages; token chunks are built from lines.
func (p *PDF) Split(ctx context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader, err := openPDF(f)
	if err != nil {
		return nil, err
	}
	pages, err := pdfPages(ctx, reader)
	if err != nil {
		return nil, err
	}
	whole := strings.Join(pages, "\n\n")
	return applyPolicy(opts, whole,
		func() (units, error) { return units{items: pages, sep: "\n\n"}, nil },
		func() (units, error) { return units{items: lines(whole), sep: "\n"}, nil },
	)
}

func openPDF(r io.Reader) (*pdf.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	return reader, nil
}

func pdfPages(ctx context.Context, reader *pdf.Reader) ([]string, error) {
	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}
	return pages, nil
}
