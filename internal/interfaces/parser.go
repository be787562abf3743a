package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// Parser - capability interface for one document format
type Parser interface {
	// Supports reports whether the parser handles the extension
	// (lowercase, no dot).
	Supports(ext string) bool

	// Parse turns raw file bytes into the common ParsedDoc shape.
	Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error)
}

// OCREngine - page-image text recognition used by the PDF parser when
// native extraction yields too little text
type OCREngine interface {
	ImageToText(ctx context.Context, image []byte) (string, error)
}
