package processor_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/domain"
	"docanalyst/internal/processor"
)

func epubBook(t *testing.T) []byte {
	t.Helper()
	container := `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`
	opf := `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Field Guide</dc:title><dc:creator>A. Author</dc:creator><dc:creator>B. Author</dc:creator>
    <dc:language>en</dc:language><dc:identifier id="uid">urn:isbn:123</dc:identifier>
  </metadata>
  <manifest>
    <item id="c2" href="text/ch%202.xhtml" media-type="application/xhtml+xml"/>
    <item id="c1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
  </manifest>
  <spine><itemref idref="c1"/><itemref idref="c2"/></spine>
</package>`
	ch1 := `<html xmlns="http://www.w3.org/1999/xhtml"><head><title>t</title><style>p{}</style></head>
<body><h1>Chapter One</h1><p>It begins.</p></body></html>`
	ch2 := `<html xmlns="http://www.w3.org/1999/xhtml"><body><h1>Chapter Two</h1><p>It ends.</p></body></html>`
	return buildZip(t, map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": container,
		"OEBPS/content.opf":      opf,
		"OEBPS/text/ch1.xhtml":   ch1,
		"OEBPS/text/ch 2.xhtml":  ch2,
		"OEBPS/style.css":        "p{}",
	}, "mimetype", "META-INF/container.xml", "OEBPS/content.opf", "OEBPS/text/ch1.xhtml", "OEBPS/text/ch 2.xhtml", "OEBPS/style.css")
}

func TestEPUB_ExtractTextFollowsSpine(t *testing.T) {
	text, err := processor.NewEPUB().ExtractText(context.Background(), bytes.NewReader(epubBook(t)))

	require.NoError(t, err)
	assert.Equal(t, "Chapter One\nIt begins.\n\nChapter Two\nIt ends.", text)
}

func TestEPUB_Metadata(t *testing.T) {
	meta, err := processor.NewEPUB().Metadata(context.Background(), bytes.NewReader(epubBook(t)))

	require.NoError(t, err)
	assert.Equal(t, "Field Guide", meta["title"])
	assert.Equal(t, "A. Author, B. Author", meta["creator"])
	assert.Equal(t, "en", meta["language"])
	assert.Equal(t, "urn:isbn:123", meta["identifier"])
	assert.Equal(t, 2, meta["document_count"])
}

func TestEPUB_SplitByPageOverChapters(t *testing.T) {
	path := writeTemp(t, "book.epub", epubBook(t))

	chunks, err := processor.NewEPUB().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodPage,
		ChunkSize: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Chapter One\nIt begins.", "Chapter Two\nIt ends."}, chunks)
}

func TestEPUB_MissingContainer(t *testing.T) {
	data := buildZip(t, map[string]string{"mimetype": "application/epub+zip"})

	_, err := processor.NewEPUB().ExtractText(context.Background(), bytes.NewReader(data))

	assert.Error(t, err)
}
