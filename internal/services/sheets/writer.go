package sheets

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

// Writer applies generated answers back onto the source workbook while
// preserving all untouched cells and formatting. The only structural
// change it makes is unmerging ranges that cover an answer target; the
// answer then lands on the anchor cell.
type Writer struct {
	logger arbor.ILogger
}

func NewWriter(logger arbor.ILogger) *Writer {
	return &Writer{logger: logger}
}

// Write applies the answers for one sheet and reports what happened.
func (w *Writer) Write(workbook *excelize.File, sheetName string, answers []*models.SheetAnswer) (models.WriteReport, error) {
	var report models.WriteReport

	wrapStyle, err := workbook.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return report, common.Errorf(common.KindFatal, "failed to create cell style: %v", err)
	}

	for _, answer := range answers {
		if answer.ResponseCol == "" || answer.Row < 1 {
			continue
		}
		cell, err := excelize.JoinCellName(answer.ResponseCol, answer.Row)
		if err != nil {
			w.logger.Warn().Err(err).Str("col", answer.ResponseCol).Int("row", answer.Row).Msg("Invalid answer target")
			continue
		}

		unmerged, err := w.unmergeTarget(workbook, sheetName, cell)
		if err != nil {
			return report, err
		}
		if unmerged {
			report.Unmerged++
		}

		if err := workbook.SetCellValue(sheetName, cell, answer.Answer); err != nil {
			return report, common.Errorf(common.KindFatal, "failed to write %s!%s: %v", sheetName, cell, err)
		}
		if err := workbook.SetCellStyle(sheetName, cell, cell, wrapStyle); err != nil {
			w.logger.Warn().Err(err).Str("cell", cell).Msg("Failed to style answer cell")
		}
		report.Written++

		if answer.Score != "" && answer.ScoreCol != "" {
			if skipped := w.writeScore(workbook, sheetName, answer); skipped {
				report.SkippedFormula++
			}
		}
	}

	return report, nil
}

// unmergeTarget flattens any merged range covering the cell so the
// write lands on a plain anchor. Reports whether a range was unmerged.
func (w *Writer) unmergeTarget(workbook *excelize.File, sheetName, cell string) (bool, error) {
	col, row, err := excelize.CellNameToCoordinates(cell)
	if err != nil {
		return false, common.Errorf(common.KindInvalidInput, "bad cell reference %s: %v", cell, err)
	}

	merges, err := workbook.GetMergeCells(sheetName)
	if err != nil {
		return false, nil
	}
	for _, merge := range merges {
		startCol, startRow, err1 := excelize.CellNameToCoordinates(merge.GetStartAxis())
		endCol, endRow, err2 := excelize.CellNameToCoordinates(merge.GetEndAxis())
		if err1 != nil || err2 != nil {
			continue
		}
		if col >= startCol && col <= endCol && row >= startRow && row <= endRow {
			if err := workbook.UnmergeCell(sheetName, merge.GetStartAxis(), merge.GetEndAxis()); err != nil {
				return false, common.Errorf(common.KindFatal, "failed to unmerge %s:%s: %v", merge.GetStartAxis(), merge.GetEndAxis(), err)
			}
			w.logger.Debug().Str("range", merge.GetStartAxis()+":"+merge.GetEndAxis()).Str("target", cell).Msg("Unmerged range covering answer target")
			return true, nil
		}
	}
	return false, nil
}

// writeScore writes the score unless the score cell carries a formula.
// Returns true when the write was skipped.
func (w *Writer) writeScore(workbook *excelize.File, sheetName string, answer *models.SheetAnswer) bool {
	cell, err := excelize.JoinCellName(answer.ScoreCol, answer.Row)
	if err != nil {
		return false
	}
	if formula, err := workbook.GetCellFormula(sheetName, cell); err == nil && formula != "" {
		w.logger.Debug().Str("cell", cell).Msg("Score cell holds a formula, skipping")
		return true
	}
	if err := workbook.SetCellValue(sheetName, cell, answer.Score); err != nil {
		w.logger.Warn().Err(err).Str("cell", cell).Msg("Failed to write score")
	}
	return false
}
