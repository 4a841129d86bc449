package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"docanalyst/internal/domain"
)

const (
	hiddenSelector = "script, style, noscript, template"
	blockSelector  = "p, div, h1, h2, h3, h4, h5, h6, article, section, li, blockquote, pre, td, th"
)

// HTML extracts the visible text of HTML pages.
type HTML struct{}

// NewHTML creates the HTML processor.
func NewHTML() *HTML { return &HTML{} }

func (p *HTML) Format() string       { return "HTML" }
func (p *HTML) Extensions() []string { return []string{"html", "htm"} }

func (p *HTML) ExtractText(_ context.Context, r io.Reader) (string, error) {
	doc, err := parseHTML(r)
	if err != nil {
		return "", err
	}
	return visibleText(doc.Selection), nil
}

func (p *HTML) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	doc, err := parseHTML(r)
	if err != nil {
		return nil, err
	}
	metaTags := make(map[string]string)
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok {
			name, ok = s.Attr("property")
		}
		if !ok || name == "" {
			return
		}
		content, _ := s.Attr("content")
		metaTags[name] = content
	})
	return map[string]any{
		"title":      strings.TrimSpace(doc.Find("title").First().Text()),
		"meta_tags":  metaTags,
		"links":      doc.Find("a[href]").Length(),
		"images":     doc.Find("img").Length(),
		"paragraphs": doc.Find("p").Length(),
	}, nil
}

// Split keeps the whole page for the page method; token chunks are built from
// leaf block elements so nested containers do not repeat their children.
func (p *HTML) Split(_ context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := parseHTML(f)
	if err != nil {
		return nil, err
	}
	whole := visibleText(doc.Selection)
	return applyPolicy(opts, whole,
		func() (units, error) { return units{items: []string{whole}}, nil },
		func() (units, error) { return units{items: htmlBlocks(doc, whole), sep: "\n\n"}, nil },
	)
}

func parseHTML(r io.Reader) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	doc.Find(hiddenSelector).Remove()
	return doc, nil
}

func htmlBlocks(doc *goquery.Document, whole string) []string {
	var blocks []string
	doc.Find(blockSelector).
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.Find(blockSelector).Length() == 0
		}).
		Each(func(_ int, s *goquery.Selection) {
			if text := visibleText(s); text != "" {
				blocks = append(blocks, text)
			}
		})
	if len(blocks) == 0 {
		return nonEmptyLines(whole)
	}
	return blocks
}

// visibleText joins every trimmed, non-empty text node under sel with newlines.
func visibleText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.Join(strings.Fields(n.Data), " "); s != "" {
				parts = append(parts, s)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "template", "head":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}
