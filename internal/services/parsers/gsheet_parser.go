package parsers

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var spreadsheetURLPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// GSheetParser resolves a Google Sheets reference. The document payload
// is not the sheet itself but its URL or spreadsheet ID; contents are
// fetched read-only via the Sheets API.
type GSheetParser struct {
	config *common.SheetsConfig
	logger arbor.ILogger
}

// NewGSheetParser creates a Google Sheets parser
func NewGSheetParser(config *common.SheetsConfig, logger arbor.ILogger) *GSheetParser {
	return &GSheetParser{config: config, logger: logger}
}

func (p *GSheetParser) Supports(ext string) bool {
	return ext == "gsheet"
}

func (p *GSheetParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	if p.config == nil || p.config.CredentialsFile == "" {
		return nil, common.Errorf(common.KindInvalidInput, "google sheets credentials not configured")
	}

	spreadsheetID := extractSpreadsheetID(strings.TrimSpace(string(data)))
	if spreadsheetID == "" {
		return nil, common.Errorf(common.KindInvalidInput, "no spreadsheet id found in %s", filename)
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(p.config.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, common.Errorf(common.KindTransient, "failed to create sheets client: %v", err)
	}

	spreadsheet, err := svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, common.Errorf(common.KindTransient, "failed to fetch spreadsheet %s: %v", spreadsheetID, err)
	}

	var text strings.Builder
	var tables []models.Table

	for _, worksheet := range spreadsheet.Sheets {
		title := worksheet.Properties.Title
		values, err := svc.Spreadsheets.Values.Get(spreadsheetID, title).Context(ctx).Do()
		if err != nil {
			p.logger.Warn().Err(err).Str("sheet", title).Msg("Failed to read worksheet values")
			continue
		}

		var kept [][]string
		for _, row := range values.Values {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = strings.TrimSpace(fmt.Sprint(v))
			}
			if isBlankRow(cells) {
				continue
			}
			kept = append(kept, cells)
			text.WriteString(strings.Join(cells, "\t"))
			text.WriteString("\n")
		}
		if len(kept) > 0 {
			tables = append(tables, models.Table{Name: title, Rows: normalizeGrid(kept)})
		}
		text.WriteString("\n")
	}

	return &models.ParsedDoc{
		Text:      text.String(),
		PageCount: len(tables),
		Metadata:  map[string]string{"filename": filename, "spreadsheet_id": spreadsheetID},
		Tables:    tables,
	}, nil
}

// extractSpreadsheetID accepts a full sharing URL or a bare ID.
func extractSpreadsheetID(ref string) string {
	if m := spreadsheetURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1]
	}
	if ref != "" && !strings.Contains(ref, "/") && !strings.ContainsAny(ref, " \t\n") {
		return ref
	}
	return ""
}

var _ interfaces.Parser = (*GSheetParser)(nil)
