//go:build notesseract

package tesseract

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/logging"
	"docanalyst/internal/port"
)

// ErrUnavailable is returned by every Recognize call in notesseract builds.
var ErrUnavailable = errors.New("tesseract support not compiled in (built with notesseract)")

type engine struct{}

// NewEngine returns an OCREngine that reports ErrUnavailable.
func NewEngine(_ *config.OCRConfig, log *zap.Logger) port.OCREngine {
	logging.OrNop(log).Warn("OCR disabled: binary built without tesseract")
	return engine{}
}

func (engine) Recognize(context.Context, []byte) (string, error) {
	return "", ErrUnavailable
}
