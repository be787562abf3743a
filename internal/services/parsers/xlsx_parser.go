package parsers

import (
	"bytes"
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

// XlsxParser turns each worksheet into one table. Cells read as cached
// values, so formulas yield their last computed result; blank rows are
// dropped.
type XlsxParser struct {
	logger arbor.ILogger
}

// NewXlsxParser creates a spreadsheet parser
func NewXlsxParser(logger arbor.ILogger) *XlsxParser {
	return &XlsxParser{logger: logger}
}

func (p *XlsxParser) Supports(ext string) bool {
	return ext == "xlsx" || ext == "xlsm" || ext == "xls"
}

func (p *XlsxParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, common.Errorf(common.KindInvalidInput, "failed to open workbook %s: %v", filename, err)
	}
	defer workbook.Close()

	var text strings.Builder
	var tables []models.Table

	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			p.logger.Warn().Err(err).Str("sheet", sheet).Msg("Failed to read worksheet")
			continue
		}

		var kept [][]string
		for _, row := range rows {
			if isBlankRow(row) {
				continue
			}
			kept = append(kept, row)
			text.WriteString(strings.Join(row, "\t"))
			text.WriteString("\n")
		}
		if len(kept) > 0 {
			tables = append(tables, models.Table{Name: sheet, Rows: normalizeGrid(kept)})
		}
		text.WriteString("\n")
	}

	return &models.ParsedDoc{
		Text:      text.String(),
		PageCount: len(tables),
		Metadata:  map[string]string{"filename": filename},
		Tables:    tables,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var _ interfaces.Parser = (*XlsxParser)(nil)
