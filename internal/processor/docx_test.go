package processor_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/domain"
	"docanalyst/internal/processor"
)

func docxPackage(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:pPr><w:jc w:val="left"/></w:pPr><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, p)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`<w:p/><w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t><w:tab/><w:t>text</w:t></w:r></w:p></w:tc></w:tr></w:tbl></w:body></w:document>`
	core := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
<dc:title>Design Notes</dc:title><dc:creator>Ada</dc:creator><dc:subject>Pipelines</dc:subject>
<cp:lastModifiedBy>Grace</cp:lastModifiedBy><dcterms:modified>2024-05-01T10:00:00Z</dcterms:modified></cp:coreProperties>`
	return buildZip(t, map[string]string{
		"word/document.xml": document,
		"docProps/core.xml": core,
	}, "word/document.xml", "docProps/core.xml")
}

func TestDOCX_ExtractText(t *testing.T) {
	data := docxPackage(t, "First paragraph.", "Second one.")

	text, err := processor.NewDOCX().ExtractText(context.Background(), bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\n\nSecond one.\n\ncell\ttext", text)
}

func TestDOCX_Metadata(t *testing.T) {
	data := docxPackage(t, "one two three", "four")

	meta, err := processor.NewDOCX().Metadata(context.Background(), bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, "Ada", meta["author"])
	assert.Equal(t, "Design Notes", meta["title"])
	assert.Equal(t, "Pipelines", meta["subject"])
	assert.Equal(t, "2024-05-01T10:00:00Z", meta["modified"])
	assert.Equal(t, "Grace", meta["last_modified_by"])
	assert.Equal(t, 3, meta["paragraph_count"])
	assert.Equal(t, 6, meta["word_count"])
}

func TestDOCX_SplitByTokenKeepsParagraphsWhole(t *testing.T) {
	long := strings.Repeat("word ", 60)
	path := writeTemp(t, "doc.docx", docxPackage(t, long, long, long))

	chunks, err := processor.NewDOCX().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodToken,
		ChunkSize: 100,
	})

	require.NoError(t, err)
	assert.Len(t, chunks, 3)
	for _, c := range chunks[:2] {
		assert.Equal(t, strings.TrimSpace(long), c)
	}
}

func TestDOCX_SplitByPageUsesVirtualPages(t *testing.T) {
	page := strings.TrimSpace(strings.Repeat("word ", 500))
	path := writeTemp(t, "doc.docx", docxPackage(t, page, page, page))

	chunks, err := processor.NewDOCX().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodPage,
		ChunkSize: 2,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, page+"\n\n"+page, chunks[0])
	assert.Equal(t, page+"\n\ncell\ttext", chunks[1])
}

func TestDOCX_NotAZip(t *testing.T) {
	_, err := processor.NewDOCX().ExtractText(context.Background(), strings.NewReader("plain text"))

	assert.Error(t, err)
}
