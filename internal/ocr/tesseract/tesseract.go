//go:build !notesseract

// Package tesseract recognizes text in images with the Tesseract OCR engine.
// Building with the notesseract tag swaps in an engine that always fails, for
// hosts without libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/logging"
	"docanalyst/internal/port"
)

type engine struct {
	// gosseract clients are not safe for concurrent use
	mu        sync.Mutex
	languages []string
	log       *zap.Logger
}

// NewEngine creates a Tesseract-backed OCREngine.
func NewEngine(cfg *config.OCRConfig, log *zap.Logger) port.OCREngine {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	return &engine{languages: langs, log: logging.OrNop(log)}
}

func (e *engine) Recognize(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("tesseract languages: %w", err)
	}
	_ = client.SetVariable("tessedit_pageseg_mode", "3")
	_ = client.SetVariable("preserve_interword_spaces", "1")

	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}

	e.log.Debug("ocr complete",
		zap.Strings("languages", e.languages),
		zap.Int("image_bytes", len(image)),
		zap.Int("text_chars", len(text)),
	)
	return strings.TrimSpace(text), nil
}
