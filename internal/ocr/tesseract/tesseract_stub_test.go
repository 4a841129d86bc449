//go:build notesseract

package tesseract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/ocr/tesseract"
	"docanalyst/internal/port"
)

func TestStubEngine_Unavailable(t *testing.T) {
	e := tesseract.NewEngine(&config.OCRConfig{}, zap.NewNop())

	text, err := e.Recognize(context.Background(), []byte{0x89, 'P', 'N', 'G'})

	assert.Empty(t, text)
	assert.ErrorIs(t, err, tesseract.ErrUnavailable)
}

func TestStubEngine_NilLogger(t *testing.T) {
	var e port.OCREngine
	assert.NotPanics(t, func() { e = tesseract.NewEngine(&config.OCRConfig{}, nil) })

	_, err := e.Recognize(context.Background(), nil)
	assert.ErrorIs(t, err, tesseract.ErrUnavailable)
}
