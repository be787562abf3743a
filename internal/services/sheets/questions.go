package sheets

import (
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

const categoryHeaderMaxLen = 80

// Question-type regex families, checked in order; first hit wins.
var questionTypePatterns = []struct {
	qType   models.QuestionType
	pattern *regexp.Regexp
}{
	{models.QuestionCompanyInfo, regexp.MustCompile(`(?i)\b(company|organi[sz]ation|vendor)\b.*\b(name|address|history|profile|employees|revenue|founded)\b`)},
	{models.QuestionReference, regexp.MustCompile(`(?i)\b(reference|case stud|similar (client|project|implementation)|existing customer)\b`)},
	{models.QuestionBinary, regexp.MustCompile(`(?i)^(does|do|can|is|are|will|has|have)\b|\b(the (system|solution|platform|vendor) (shall|must|should|will))\b|\byes\s*/\s*no\b`)},
	{models.QuestionNarrative, regexp.MustCompile(`(?i)^(describe|explain|detail|provide|outline|how)\b`)},
}

// Extractor walks the data rows of a detected questionnaire structure
// and emits question records, tracking section category headers.
type Extractor struct {
	logger arbor.ILogger
}

func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract reads questionnaire rows below the detected header. Rows with
// an empty id and a short, bold, or wide-merged question cell become the
// current category instead of a question.
func (e *Extractor) Extract(workbook *excelize.File, structure models.SheetStructure) ([]*models.SheetQuestion, error) {
	rows, err := workbook.GetRows(structure.SheetName)
	if err != nil {
		return nil, err
	}

	merges, err := workbook.GetMergeCells(structure.SheetName)
	if err != nil {
		merges = nil
	}

	var questions []*models.SheetQuestion
	currentCategory := ""

	for row := structure.FirstDataRow; row <= len(rows); row++ {
		id := cellValue(rows, row, structure.IDCol)
		question := cellValue(rows, row, structure.QuestionCol)

		if id == "" && question == "" {
			continue
		}
		if skipRow(id) || skipRow(question) {
			continue
		}

		if id == "" && e.isCategoryHeader(workbook, structure, merges, row, question) {
			currentCategory = question
			continue
		}
		if question == "" {
			continue
		}

		score := cellValue(rows, row, structure.ScoreCol)
		scoreIsFormula := false
		if structure.ScoreCol != "" {
			cell, _ := excelize.JoinCellName(structure.ScoreCol, row)
			if formula, err := workbook.GetCellFormula(structure.SheetName, cell); err == nil && formula != "" {
				scoreIsFormula = true
			}
		}

		questions = append(questions, &models.SheetQuestion{
			SheetName:       structure.SheetName,
			Row:             row,
			ID:              id,
			Category:        currentCategory,
			Question:        question,
			AdditionalInfo:  cellValue(rows, row, structure.AdditionalInfoCol),
			QuestionType:    classifyQuestion(question),
			CurrentResponse: cellValue(rows, row, structure.ResponseCol),
			ResponseCol:     structure.ResponseCol,
			ScoreCol:        structure.ScoreCol,
			CurrentScore:    score,
			ScoreIsFormula:  scoreIsFormula,
		})
	}

	return questions, nil
}

// isCategoryHeader: id empty plus a short question cell, a bold question
// cell, or a horizontal merge spanning at least 3 columns on this row.
func (e *Extractor) isCategoryHeader(workbook *excelize.File, structure models.SheetStructure, merges []excelize.MergeCell, row int, question string) bool {
	if len(question) < categoryHeaderMaxLen {
		return true
	}
	cell, _ := excelize.JoinCellName(structure.QuestionCol, row)
	if isBold(workbook, structure.SheetName, cell) {
		return true
	}
	return hasWideMerge(merges, row)
}

func isBold(workbook *excelize.File, sheetName, cell string) bool {
	styleID, err := workbook.GetCellStyle(sheetName, cell)
	if err != nil {
		return false
	}
	style, err := workbook.GetStyle(styleID)
	if err != nil || style == nil || style.Font == nil {
		return false
	}
	return style.Font.Bold
}

// hasWideMerge reports a horizontal merged range of >=3 columns whose
// rows include the given row.
func hasWideMerge(merges []excelize.MergeCell, row int) bool {
	for _, merge := range merges {
		startCol, startRow, err1 := excelize.CellNameToCoordinates(merge.GetStartAxis())
		endCol, endRow, err2 := excelize.CellNameToCoordinates(merge.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		if row >= startRow && row <= endRow && endCol-startCol+1 >= 3 {
			return true
		}
	}
	return false
}

func skipRow(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(lower, "total") || strings.HasPrefix(lower, "=")
}

// classifyQuestion checks the ordered regex families; the fallback
// treats short statements without a question mark as binary.
func classifyQuestion(question string) models.QuestionType {
	for _, family := range questionTypePatterns {
		if family.pattern.MatchString(question) {
			return family.qType
		}
	}
	if len(question) < 120 && !strings.HasSuffix(strings.TrimSpace(question), "?") {
		return models.QuestionBinary
	}
	return models.QuestionNarrative
}

// cellValue reads a cell from the cached row grid by column letter; out
// of range reads yield "".
func cellValue(rows [][]string, row int, col string) string {
	if col == "" || row < 1 || row > len(rows) {
		return ""
	}
	colNum, err := excelize.ColumnNameToNumber(col)
	if err != nil {
		return ""
	}
	cells := rows[row-1]
	if colNum > len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[colNum-1])
}
