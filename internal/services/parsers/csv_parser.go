package parsers

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"unicode/utf8"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"golang.org/x/text/encoding/charmap"
)

// CSVParser reads a delimited file as one table. Decoding falls back
// UTF-8 to Latin-1 for legacy exports.
type CSVParser struct {
	logger arbor.ILogger
}

// NewCSVParser creates a CSV parser
func NewCSVParser(logger arbor.ILogger) *CSVParser {
	return &CSVParser{logger: logger}
}

func (p *CSVParser) Supports(ext string) bool {
	return ext == "csv"
}

func (p *CSVParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, common.Errorf(common.KindInvalidInput, "failed to decode %s: %v", filename, err)
		}
		data = decoded
		p.logger.Debug().Str("filename", filename).Msg("CSV decoded as Latin-1")
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, common.Errorf(common.KindInvalidInput, "failed to parse csv %s: %v", filename, err)
	}

	var text strings.Builder
	var rows [][]string
	for _, record := range records {
		if isBlankRow(record) {
			continue
		}
		rows = append(rows, record)
		text.WriteString(strings.Join(record, "\t"))
		text.WriteString("\n")
	}

	doc := &models.ParsedDoc{
		Text:      text.String(),
		PageCount: 1,
		Metadata:  map[string]string{"filename": filename},
	}
	if len(rows) > 0 {
		doc.Tables = []models.Table{{Rows: normalizeGrid(rows)}}
	}
	return doc, nil
}

var _ interfaces.Parser = (*CSVParser)(nil)
