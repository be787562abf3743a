package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestWriteAnswersIntoMergedRange(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := "Sheet1"

	require.NoError(t, wb.SetCellValue(sheet, "B10", "Does the platform support SSO?"))
	require.NoError(t, wb.MergeCell(sheet, "D10", "E10"))

	w := NewWriter(common.GetLogger())
	report, err := w.Write(wb, sheet, []*models.SheetAnswer{
		{SheetName: sheet, Row: 10, ResponseCol: "D", Answer: "Yes, via SAML 2.0 and OIDC."},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.Unmerged)
	assert.Equal(t, 0, report.SkippedFormula)

	got, err := wb.GetCellValue(sheet, "D10")
	require.NoError(t, err)
	assert.Equal(t, "Yes, via SAML 2.0 and OIDC.", got)

	merges, err := wb.GetMergeCells(sheet)
	require.NoError(t, err)
	assert.Empty(t, merges)

	// Untouched cells survive.
	question, err := wb.GetCellValue(sheet, "B10")
	require.NoError(t, err)
	assert.Equal(t, "Does the platform support SSO?", question)
}

func TestWriteSkipsFormulaScoreCell(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := "Sheet1"

	require.NoError(t, wb.SetCellFormula(sheet, "C4", "IF(D4=\"\",0,1)"))

	w := NewWriter(common.GetLogger())
	report, err := w.Write(wb, sheet, []*models.SheetAnswer{
		{SheetName: sheet, Row: 4, ResponseCol: "D", Answer: "Fully supported.", Score: "1", ScoreCol: "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 1, report.SkippedFormula)

	formula, err := wb.GetCellFormula(sheet, "C4")
	require.NoError(t, err)
	assert.NotEmpty(t, formula)
}

func TestWriteScoreIntoPlainCell(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := "Sheet1"

	w := NewWriter(common.GetLogger())
	report, err := w.Write(wb, sheet, []*models.SheetAnswer{
		{SheetName: sheet, Row: 2, ResponseCol: "D", Answer: "Configurable via admin console.", Score: "0.8", ScoreCol: "C"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Written)
	assert.Equal(t, 0, report.SkippedFormula)

	score, err := wb.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, "0.8", score)
}

func TestWriteIgnoresInvalidTargets(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()

	w := NewWriter(common.GetLogger())
	report, err := w.Write(wb, "Sheet1", []*models.SheetAnswer{
		{SheetName: "Sheet1", Row: 0, ResponseCol: "D", Answer: "dropped"},
		{SheetName: "Sheet1", Row: 3, ResponseCol: "", Answer: "dropped"},
	})
	require.NoError(t, err)
	assert.Zero(t, report.Written)
}
