package parsers

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// Dispatcher routes file bytes to the parser that supports the filename
// extension and normalizes unsupported formats into invalid_input errors.
type Dispatcher struct {
	parsers []interfaces.Parser
	logger  arbor.ILogger
}

// NewDispatcher wires the full parser set.
func NewDispatcher(config *common.Config, ocr interfaces.OCREngine, logger arbor.ILogger) *Dispatcher {
	return &Dispatcher{
		parsers: []interfaces.Parser{
			NewPDFParser(ocr, logger),
			NewDocxParser(logger),
			NewXlsxParser(logger),
			NewCSVParser(logger),
			NewPptxParser(logger),
			NewGSheetParser(&config.Sheets, logger),
		},
		logger: logger,
	}
}

// NewDispatcherWithParsers builds a dispatcher over an explicit parser
// set. Used by tests to substitute fakes.
func NewDispatcherWithParsers(logger arbor.ILogger, parsers ...interfaces.Parser) *Dispatcher {
	return &Dispatcher{parsers: parsers, logger: logger}
}

// Parse selects a parser by extension and runs it.
func (d *Dispatcher) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	ext := normalizeExt(filename)
	for _, parser := range d.parsers {
		if parser.Supports(ext) {
			doc, err := parser.Parse(ctx, data, filename)
			if err != nil {
				d.logger.Warn().Err(err).Str("filename", filename).Msg("Parse failed")
				return nil, err
			}
			d.logger.Debug().
				Str("filename", filename).
				Int("pages", doc.PageCount).
				Int("tables", len(doc.Tables)).
				Bool("was_ocr", doc.WasOCR).
				Msg("Document parsed")
			return doc, nil
		}
	}

	return nil, common.Errorf(common.KindInvalidInput,
		"unsupported format %q; supported extensions: %s", ext, strings.Join(d.SupportedExtensions(), ", "))
}

// SupportedExtensions lists every extension a registered parser accepts.
func (d *Dispatcher) SupportedExtensions() []string {
	known := []string{"pdf", "docx", "doc", "xlsx", "xlsm", "xls", "csv", "pptx", "ppt", "gsheet"}
	supported := make([]string, 0, len(known))
	for _, ext := range known {
		for _, parser := range d.parsers {
			if parser.Supports(ext) {
				supported = append(supported, ext)
				break
			}
		}
	}
	sort.Strings(supported)
	return supported
}

func normalizeExt(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}
