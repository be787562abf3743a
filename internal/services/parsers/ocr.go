package parsers

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// TesseractEngine implements OCREngine over a local tesseract install.
// A fresh client per call keeps the engine safe for concurrent pages.
type TesseractEngine struct {
	language string
	logger   arbor.ILogger
}

// NewTesseractEngine creates the engine; language defaults to English.
func NewTesseractEngine(language string, logger arbor.ILogger) *TesseractEngine {
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{language: language, logger: logger}
}

// ImageToText recognizes text in an encoded page image.
func (e *TesseractEngine) ImageToText(ctx context.Context, image []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	return strings.TrimSpace(text), nil
}

var _ interfaces.OCREngine = (*TesseractEngine)(nil)
