package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"

	"docanalyst/internal/domain"
	"docanalyst/internal/port"
)

// NoTextInImage is returned by image extraction when OCR finds nothing.
const NoTextInImage = "No text found in image."

var errNoOCREngine = errors.New("OCR engine not configured")

// Image extracts text from raster images through an OCR engine.
type Image struct {
	ocr port.OCREngine
}

// NewImage creates the image processor. ocr may be nil.
func NewImage(ocr port.OCREngine) *Image { return &Image{ocr: ocr} }

func (p *Image) Format() string       { return "Image" }
func (p *Image) Extensions() []string { return []string{"png", "jpg", "jpeg"} }

func (p *Image) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	if p.ocr == nil {
		return "", errNoOCREngine
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	text, err := p.ocr.Recognize(ctx, data)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	if text = strings.TrimSpace(text); text == "" {
		return NoTextInImage, nil
	}
	return text, nil
}

func (p *Image) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image header: %w", err)
	}
	return map[string]any{
		"width":      cfg.Width,
		"height":     cfg.Height,
		"format":     strings.ToUpper(format),
		"mode":       colorMode(cfg.ColorModel),
		"size_bytes": len(data),
	}, nil
}

// Split always returns the recognized text as a single chunk.
func (p *Image) Split(ctx context.Context, path string, _ domain.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	text, err := p.ExtractText(ctx, f)
	if err != nil {
		return nil, err
	}
	return []string{text}, nil
}

func colorMode(m color.Model) string {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return "RGBA"
	case color.YCbCrModel:
		return "RGB"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := m.(color.Palette); ok {
		return "P"
	}
	return "unknown"
}
