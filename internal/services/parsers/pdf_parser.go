package parsers

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sort"
	"strings"
	"unicode"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// minSignificantChars is the per-page threshold below which the page is
// re-rendered and OCR'd.
const minSignificantChars = 50

// PDFParser extracts per-page text natively and falls back to OCR for
// scanned pages. Tables come from positioned text rows on the native
// path only; the OCR path yields text.
type PDFParser struct {
	ocr    interfaces.OCREngine
	logger arbor.ILogger
}

// NewPDFParser creates a PDF parser. The OCR engine may be nil, in which
// case scanned pages keep whatever native extraction produced.
func NewPDFParser(ocr interfaces.OCREngine, logger arbor.ILogger) *PDFParser {
	return &PDFParser{ocr: ocr, logger: logger}
}

func (p *PDFParser) Supports(ext string) bool {
	return ext == "pdf"
}

func (p *PDFParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	pages, tables, err := p.extractNative(data)
	if err != nil {
		// Native extraction failed outright: OCR the whole document.
		p.logger.Warn().Err(err).Str("filename", filename).Msg("Native PDF extraction failed, attempting full OCR")
		return p.ocrWholeDocument(ctx, data, filename)
	}

	wasOCR := false
	for i := range pages {
		if significantChars(pages[i]) >= minSignificantChars || p.ocr == nil {
			continue
		}
		ocrText, ocrErr := p.ocrPage(ctx, data, i)
		if ocrErr != nil {
			p.logger.Warn().Err(ocrErr).Int("page", i+1).Msg("Page OCR failed, keeping native text")
			continue
		}
		// Substitute only when OCR strictly beats the native yield.
		if len(strings.TrimSpace(ocrText)) > len(strings.TrimSpace(pages[i])) {
			pages[i] = ocrText
			wasOCR = true
		}
	}

	return &models.ParsedDoc{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: len(pages),
		Metadata:  map[string]string{"filename": filename},
		Tables:    tables,
		WasOCR:    wasOCR,
	}, nil
}

// extractNative pulls text and positional rows from every page.
func (p *PDFParser) extractNative(data []byte) ([]string, []models.Table, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	pageCount := reader.NumPage()
	if pageCount == 0 {
		return nil, nil, fmt.Errorf("pdf has no pages")
	}

	pages := make([]string, pageCount)
	var tables []models.Table

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		var sb strings.Builder
		var grid [][]string
		for _, row := range rows {
			cells := clusterRowCells(row)
			if len(cells) > 1 {
				grid = append(grid, cells)
			}
			sb.WriteString(strings.Join(cells, " "))
			sb.WriteString("\n")
		}
		pages[i-1] = sb.String()

		// Two or more multi-cell rows on a page look like a table.
		if len(grid) >= 2 {
			tables = append(tables, models.Table{Page: i, Rows: normalizeGrid(grid)})
		}
	}

	return pages, tables, nil
}

// clusterRowCells groups a row's positioned words into cells split at
// large horizontal gaps.
func clusterRowCells(row *pdf.Row) []string {
	words := make([]pdf.Text, len(row.Content))
	copy(words, row.Content)
	sort.Slice(words, func(i, j int) bool { return words[i].X < words[j].X })

	const gapThreshold = 40.0
	var cells []string
	var current strings.Builder
	lastEnd := -1.0

	for _, word := range words {
		if lastEnd >= 0 && word.X-lastEnd > gapThreshold {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
		} else if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word.S)
		lastEnd = word.X + word.W
	}
	if current.Len() > 0 {
		cells = append(cells, strings.TrimSpace(current.String()))
	}
	return cells
}

// normalizeGrid pads ragged rows so every row has the same width; empty
// cells materialize as empty strings.
func normalizeGrid(grid [][]string) [][]string {
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range grid {
		for len(row) < width {
			row = append(row, "")
		}
		grid[i] = row
	}
	return grid
}

// ocrPage renders one page to an image and runs it through the engine.
func (p *PDFParser) ocrPage(ctx context.Context, data []byte, pageIndex int) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf for rendering: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(pageIndex)
	if err != nil {
		return "", fmt.Errorf("failed to render page %d: %w", pageIndex+1, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	return p.ocr.ImageToText(ctx, buf.Bytes())
}

// ocrWholeDocument renders and OCRs every page; used when native
// extraction throws.
func (p *PDFParser) ocrWholeDocument(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	if p.ocr == nil {
		return nil, common.Errorf(common.KindInvalidInput, "pdf %s is not text-extractable and no OCR engine is configured", filename)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, common.Errorf(common.KindInvalidInput, "failed to open pdf %s: %v", filename, err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		img, err := doc.Image(i)
		if err != nil {
			p.logger.Warn().Err(err).Int("page", i+1).Msg("Page render failed during full OCR")
			continue
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			continue
		}
		text, err := p.ocr.ImageToText(ctx, buf.Bytes())
		if err != nil {
			p.logger.Warn().Err(err).Int("page", i+1).Msg("OCR failed for page")
			continue
		}
		pages = append(pages, text)
	}

	if len(pages) == 0 {
		return nil, common.Errorf(common.KindInvalidInput, "OCR produced no text for %s", filename)
	}

	return &models.ParsedDoc{
		Text:      strings.Join(pages, "\n\n"),
		PageCount: doc.NumPage(),
		Metadata:  map[string]string{"filename": filename},
		WasOCR:    true,
	}, nil
}

func significantChars(text string) int {
	count := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			count++
		}
	}
	return count
}

var _ interfaces.Parser = (*PDFParser)(nil)
