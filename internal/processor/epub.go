package processor

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"docanalyst/internal/domain"
)

// EPUB reads e-books from their zip container: container.xml locates the
// package document, whose spine orders the XHTML chapters.
type EPUB struct{}

// NewEPUB creates the EPUB processor.
func NewEPUB() *EPUB { return &EPUB{} }

func (p *EPUB) Format() string       { return "EPUB" }
func (p *EPUB) Extensions() []string { return []string{"epub"} }

func (p *EPUB) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	book, err := readEPUB(ctx, r)
	if err != nil {
		return "", err
	}
	return strings.Join(book.chapters, "\n\n"), nil
}

func (p *EPUB) Metadata(ctx context.Context, r io.Reader) (map[string]any, error) {
	zr, err := openZip(r)
	if err != nil {
		return nil, err
	}
	pkg, _, err := epubPackage(zr)
	if err != nil {
		return nil, err
	}
	md := pkg.Metadata
	return map[string]any{
		"title":          first(md.Title),
		"creator":        strings.Join(md.Creator, ", "),
		"language":       first(md.Language),
		"identifier":     first(md.Identifier),
		"publisher":      first(md.Publisher),
		"document_count": len(pkg.Spine),
	}, nil
}

// Split pages over chapters; token chunks are built from non-empty lines.
func (p *EPUB) Split(ctx context.Context, filePath string, opts domain.SplitOptions) ([]string, error) {
	zr, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", filePath, err)
	}
	defer zr.Close()

	book, err := epubChapters(ctx, &zr.Reader)
	if err != nil {
		return nil, err
	}
	whole := strings.Join(book.chapters, "\n\n")
	return applyPolicy(opts, whole,
		func() (units, error) { return units{items: book.chapters, sep: "\n\n"}, nil },
		func() (units, error) { return units{items: nonEmptyLines(whole), sep: "\n"}, nil },
	)
}

type epubContainer struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

type epubOPF struct {
	Metadata struct {
		Title      []string `xml:"title"`
		Creator    []string `xml:"creator"`
		Language   []string `xml:"language"`
		Identifier []string `xml:"identifier"`
		Publisher  []string `xml:"publisher"`
	} `xml:"metadata"`
	Manifest []struct {
		ID        string `xml:"id,attr"`
		Href      string `xml:"href,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"manifest>item"`
	Spine []struct {
		IDRef string `xml:"idref,attr"`
	} `xml:"spine>itemref"`
}

type epubBook struct {
	chapters []string
}

func readEPUB(ctx context.Context, r io.Reader) (*epubBook, error) {
	zr, err := openZip(r)
	if err != nil {
		return nil, err
	}
	return epubChapters(ctx, zr)
}

func epubPackage(zr *zip.Reader) (*epubOPF, string, error) {
	var container epubContainer
	if err := decodeZipXML(zr, "META-INF/container.xml", &container); err != nil {
		return nil, "", err
	}
	if len(container.Rootfiles) == 0 || container.Rootfiles[0].FullPath == "" {
		return nil, "", fmt.Errorf("container.xml lists no package document")
	}
	opfPath := container.Rootfiles[0].FullPath

	var pkg epubOPF
	if err := decodeZipXML(zr, opfPath, &pkg); err != nil {
		return nil, "", err
	}
	return &pkg, opfPath, nil
}

// epubChapters returns the visible text of each spine document in reading
// order, skipping documents with no text.
func epubChapters(ctx context.Context, zr *zip.Reader) (*epubBook, error) {
	pkg, opfPath, err := epubPackage(zr)
	if err != nil {
		return nil, err
	}
	hrefs := make(map[string]string, len(pkg.Manifest))
	for _, item := range pkg.Manifest {
		hrefs[item.ID] = item.Href
	}

	base := path.Dir(opfPath)
	book := &epubBook{}
	for _, ref := range pkg.Spine {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		href, ok := hrefs[ref.IDRef]
		if !ok {
			continue
		}
		if unescaped, err := url.PathUnescape(href); err == nil {
			href = unescaped
		}
		text, err := epubDocumentText(zr, path.Join(base, href))
		if err != nil {
			return nil, err
		}
		if text != "" {
			book.chapters = append(book.chapters, text)
		}
	}
	return book, nil
}

func epubDocumentText(zr *zip.Reader, name string) (string, error) {
	rc, err := zipEntry(zr, name)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", name, err)
	}
	if rc == nil {
		return "", fmt.Errorf("spine document %s not found", name)
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", name, err)
	}
	doc.Find(hiddenSelector).Remove()
	return visibleText(doc.Find("body")), nil
}

func decodeZipXML(zr *zip.Reader, name string, v any) error {
	rc, err := zipEntry(zr, name)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	if rc == nil {
		return fmt.Errorf("%s not found", name)
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
