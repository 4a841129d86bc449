package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"docanalyst/internal/domain"
)

// DOCX reads WordprocessingML packages directly from the zip container.
type DOCX struct{}

// NewDOCX creates the DOCX processor.
func NewDOCX() *DOCX { return &DOCX{} }

func (p *DOCX) Format() string       { return "DOCX" }
func (p *DOCX) Extensions() []string { return []string{"docx"} }

func (p *DOCX) ExtractText(_ context.Context, r io.Reader) (string, error) {
	pkg, err := openZip(r)
	if err != nil {
		return "", err
	}
	paras, err := docxParagraphs(pkg)
	if err != nil {
		return "", err
	}
	return strings.Join(paras, "\n\n"), nil
}

func (p *DOCX) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	pkg, err := openZip(r)
	if err != nil {
		return nil, err
	}
	paras, err := docxParagraphs(pkg)
	if err != nil {
		return nil, err
	}
	words := 0
	for _, para := range paras {
		words += len(strings.Fields(para))
	}
	meta := map[string]any{
		"paragraph_count": len(paras),
		"word_count":      words,
	}

	props, err := docxCoreProperties(pkg)
	if err != nil {
		return nil, err
	}
	meta["author"] = props.Creator
	meta["title"] = props.Title
	meta["subject"] = props.Subject
	meta["created"] = props.Created
	meta["modified"] = props.Modified
	meta["last_modified_by"] = props.LastModifiedBy
	return meta, nil
}

// Split pages over ~500-word virtual pages of paragraphs; token chunks are
// built from paragraphs.
func (p *DOCX) Split(_ context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	pkg, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer pkg.Close()

	paras, err := docxParagraphs(&pkg.Reader)
	if err != nil {
		return nil, err
	}
	return applyPolicy(opts, strings.Join(paras, "\n\n"),
		func() (units, error) { return units{items: virtualPages(paras, "\n\n"), sep: "\n\n"}, nil },
		func() (units, error) { return units{items: paras, sep: "\n\n"}, nil },
	)
}

func openZip(r io.Reader) (*zip.Reader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening zip container: %w", err)
	}
	return zr, nil
}

func zipEntry(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, nil
}

// docxParagraphs returns the non-empty paragraphs of word/document.xml,
// including those inside tables, in document order.
func docxParagraphs(zr *zip.Reader) ([]string, error) {
	rc, err := zipEntry(zr, "word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("opening document part: %w", err)
	}
	if rc == nil {
		return nil, fmt.Errorf("word/document.xml not found")
	}
	defer rc.Close()

	var (
		paras  []string
		cur    strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing document part: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				cur.Reset()
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(cur.String()); s != "" {
					paras = append(paras, s)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return paras, nil
}

type coreProperties struct {
	Title          string `xml:"title"`
	Subject        string `xml:"subject"`
	Creator        string `xml:"creator"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

func docxCoreProperties(zr *zip.Reader) (*coreProperties, error) {
	props := &coreProperties{}
	rc, err := zipEntry(zr, "docProps/core.xml")
	if err != nil {
		return nil, fmt.Errorf("opening core properties: %w", err)
	}
	if rc == nil {
		return props, nil
	}
	defer rc.Close()
	if err := xml.NewDecoder(rc).Decode(props); err != nil {
		return nil, fmt.Errorf("parsing core properties: %w", err)
	}
	return props, nil
}
