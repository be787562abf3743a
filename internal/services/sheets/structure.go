package sheets

import (
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

const scanLimit = 15

// Keyword families for header detection. Matching is case-insensitive
// substring over cell text.
var (
	responseKeywords = []string{"response", "answer"}
	questionKeywords = []string{"question", "requirement", "description"}
	idKeywords       = []string{"id", "ref", "#"}
	scoreKeywords    = []string{"score", "rating", "compliance"}
	infoKeywords     = []string{"additional info", "comments", "notes"}
)

// Detector locates the questionnaire layout of a worksheet: which row
// holds the headers and which columns hold ids, questions, responses,
// scores, and notes.
type Detector struct {
	logger arbor.ILogger
}

func NewDetector(logger arbor.ILogger) *Detector {
	return &Detector{logger: logger}
}

// Detect scans the top-left corner of the sheet for a header row, then
// falls back to sheet-name patterns and a column-B keyword scan.
func (d *Detector) Detect(workbook *excelize.File, sheetName string) models.SheetStructure {
	structure := models.SheetStructure{SheetName: sheetName}

	rows, err := workbook.GetRows(sheetName)
	if err != nil || len(rows) == 0 {
		return structure
	}

	maxRow := min(scanLimit, len(rows))
	for r := 0; r < maxRow; r++ {
		candidate := scanHeaderRow(rows[r])
		if candidate.QuestionCol != "" && candidate.ResponseCol != "" {
			candidate.SheetName = sheetName
			candidate.HeaderRow = r + 1
			candidate.FirstDataRow = r + 2
			d.logger.Debug().Str("sheet", sheetName).Int("header_row", candidate.HeaderRow).Msg("Detected questionnaire header row")
			return candidate
		}
	}

	if fixed, ok := sheetNameFallback(sheetName); ok {
		d.logger.Debug().Str("sheet", sheetName).Msg("Using sheet-name layout fallback")
		fixed.SheetName = sheetName
		return fixed
	}

	// Last resort: find a header by keyword hits in column B, else assume
	// headers on row 3.
	headerRow := 3
	for r := 0; r < maxRow; r++ {
		if len(rows[r]) < 2 {
			continue
		}
		cell := strings.ToLower(rows[r][1])
		if containsAny(cell, idKeywords) || containsAny(cell, questionKeywords) {
			headerRow = r + 1
			break
		}
	}
	return models.SheetStructure{
		SheetName:    sheetName,
		HeaderRow:    headerRow,
		FirstDataRow: headerRow + 1,
		IDCol:        "A",
		QuestionCol:  "B",
		ResponseCol:  "C",
	}
}

// scanHeaderRow maps keyword families to column letters for one row.
// The row qualifies only when both a question and a response column are
// found.
func scanHeaderRow(row []string) models.SheetStructure {
	var structure models.SheetStructure
	maxCol := min(scanLimit, len(row))
	for c := 0; c < maxCol; c++ {
		cell := strings.ToLower(strings.TrimSpace(row[c]))
		if cell == "" {
			continue
		}
		letter, _ := excelize.ColumnNumberToName(c + 1)
		switch {
		case structure.ResponseCol == "" && containsAny(cell, responseKeywords):
			structure.ResponseCol = letter
		case structure.QuestionCol == "" && containsAny(cell, questionKeywords):
			structure.QuestionCol = letter
		case structure.ScoreCol == "" && containsAny(cell, scoreKeywords):
			structure.ScoreCol = letter
		case structure.AdditionalInfoCol == "" && containsAny(cell, infoKeywords):
			structure.AdditionalInfoCol = letter
		case structure.IDCol == "" && containsAny(cell, idKeywords):
			structure.IDCol = letter
		}
	}
	return structure
}

// sheetNameFallback recognizes known questionnaire tab naming schemes.
// Tabs like "D. Functional Requirements" carry a fixed A/B/C/D layout
// with headers on row 3.
func sheetNameFallback(sheetName string) (models.SheetStructure, bool) {
	lower := strings.ToLower(sheetName)
	if strings.HasPrefix(lower, "d") && strings.Contains(lower, "functional") {
		return models.SheetStructure{
			HeaderRow:    3,
			FirstDataRow: 4,
			IDCol:        "A",
			QuestionCol:  "B",
			ScoreCol:     "C",
			ResponseCol:  "D",
		}, true
	}
	return models.SheetStructure{}, false
}

func containsAny(cell string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(cell, kw) {
			return true
		}
	}
	return false
}
