package processor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"docanalyst/internal/domain"
)

// XML extracts the text content of an element tree.
type XML struct{}

// NewXML creates the XML processor.
func NewXML() *XML { return &XML{} }

func (p *XML) Format() string       { return "XML" }
func (p *XML) Extensions() []string { return []string{"xml"} }

func (p *XML) ExtractText(_ context.Context, r io.Reader) (string, error) {
	doc, err := parseXML(r)
	if err != nil {
		return "", err
	}
	return xmlText(doc), nil
}

func (p *XML) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	doc, err := parseXML(r)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	total := 0
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode {
			counts[qualifiedName(n)]++
			total++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	root := ""
	if el := rootElement(doc); el != nil {
		root = qualifiedName(el)
	}
	return map[string]any{
		"root_element":   root,
		"element_counts": counts,
		"total_elements": total,
	}, nil
}

// Split treats each top-level child element of the root, serialized as XML,
// as one unit for both methods.
func (p *XML) Split(_ context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := parseXML(f)
	if err != nil {
		return nil, err
	}
	whole := xmlText(doc)
	children := func() (units, error) {
		root := rootElement(doc)
		if root == nil {
			return units{items: []string{whole}}, nil
		}
		var items []string
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode {
				items = append(items, c.OutputXML(true))
			}
		}
		if len(items) == 0 {
			return units{items: []string{whole}}, nil
		}
		return units{items: items, sep: "\n"}, nil
	}
	return applyPolicy(opts, whole, children, children)
}

func parseXML(r io.Reader) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing xml: %w", err)
	}
	return doc, nil
}

func rootElement(doc *xmlquery.Node) *xmlquery.Node {
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n
		}
	}
	return nil
}

func qualifiedName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

func xmlText(doc *xmlquery.Node) string {
	var parts []string
	var walk func(n *xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		switch n.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case xmlquery.CommentNode, xmlquery.DeclarationNode, xmlquery.NotationNode, xmlquery.AttributeNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, "\n")
}
