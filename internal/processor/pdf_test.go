package processor_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/domain"
	"docanalyst/internal/processor"
)

func pdfDocument(t *testing.T, pages ...string) []byte {
	t.Helper()
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle("Quarterly Report", false)
	doc.SetAuthor("Finance Team", false)
	doc.SetCompression(false)
	doc.SetFont("Helvetica", "", 12)
	for _, text := range pages {
		doc.AddPage()
		doc.Cell(40, 10, text)
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestPDF_ExtractTextAllPages(t *testing.T) {
	data := pdfDocument(t, "Alpha", "Bravo", "Charlie")

	text, err := processor.NewPDF().ExtractText(context.Background(), bytes.NewReader(data))

	require.NoError(t, err)
	a, b, c := strings.Index(text, "Alpha"), strings.Index(text, "Bravo"), strings.Index(text, "Charlie")
	require.True(t, a >= 0 && b >= 0 && c >= 0, "got %q", text)
	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestPDF_Metadata(t *testing.T) {
	data := pdfDocument(t, "Alpha", "Bravo")

	meta, err := processor.NewPDF().Metadata(context.Background(), bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, 2, meta["page_count"])
	assert.Equal(t, "Quarterly Report", meta["title"])
	assert.Equal(t, "Finance Team", meta["author"])
}

func TestPDF_SplitByPage(t *testing.T) {
	path := writeTemp(t, "report.pdf", pdfDocument(t, "Alpha", "Bravo", "Charlie"))

	chunks, err := processor.NewPDF().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodPage,
		ChunkSize: 2,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "Alpha")
	assert.Contains(t, chunks[0], "Bravo")
	assert.Contains(t, chunks[1], "Charlie")
}

func TestPDF_NotAPDF(t *testing.T) {
	_, err := processor.NewPDF().ExtractText(context.Background(), strings.NewReader("hello"))

	assert.Error(t, err)
}
