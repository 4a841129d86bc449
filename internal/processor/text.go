package processor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"docanalyst/internal/domain"
)

const (
	encodingUTF8   = "utf-8"
	encodingLatin1 = "latin-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodeText returns data as a string, trying UTF-8 first and falling back to
// Latin-1, which accepts every byte sequence.
func decodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), encodingUTF8, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", fmt.Errorf("decoding as latin-1: %w", err)
	}
	return string(decoded), encodingLatin1, nil
}

func readText(r io.Reader) (string, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("reading input: %w", err)
	}
	return decodeText(data)
}

// Text handles plain text files.
type Text struct{}

// NewText creates the plain text processor.
func NewText() *Text { return &Text{} }

func (p *Text) Format() string       { return "TXT" }
func (p *Text) Extensions() []string { return []string{"txt"} }

func (p *Text) ExtractText(_ context.Context, r io.Reader) (string, error) {
	text, _, err := readText(r)
	return text, err
}

func (p *Text) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	text, enc, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"size_bytes": len(data),
		"encoding":   enc,
		"line_count": len(lines(text)),
		"word_count": len(strings.Fields(text)),
		"char_count": utf8.RuneCountInString(text),
	}, nil
}

// Split pages on form feeds when the file has them, otherwise on ~500-word
// virtual pages of whole lines. Token chunks are built from lines.
func (p *Text) Split(_ context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text, _, err := decodeText(data)
	if err != nil {
		return nil, err
	}
	return applyPolicy(opts, text,
		func() (units, error) { return textPages(text), nil },
		func() (units, error) { return units{items: lines(text), sep: "\n"}, nil },
	)
}

func textPages(text string) units {
	if strings.Contains(text, "\f") {
		return units{items: strings.Split(text, "\f"), sep: "\f"}
	}
	return units{items: virtualPages(lines(text), "\n"), sep: "\n"}
}
