package sheets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

func questionnaireFixture(t *testing.T) (*excelize.File, models.SheetStructure) {
	t.Helper()
	wb := excelize.NewFile()
	sheet := "Questions"
	_, err := wb.NewSheet(sheet)
	require.NoError(t, err)

	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]string{"ID", "Requirement", "Score", "Response"}))

	// Section header: merged across B5:E5 with no id.
	require.NoError(t, wb.SetCellValue(sheet, "B5", "Security"))
	require.NoError(t, wb.MergeCell(sheet, "B5", "E5"))

	require.NoError(t, wb.SetCellValue(sheet, "A6", "SEC-1"))
	require.NoError(t, wb.SetCellValue(sheet, "B6", "The system shall encrypt data at rest and enforce role based access for every stored record."))
	require.NoError(t, wb.SetCellValue(sheet, "A7", "SEC-2"))
	require.NoError(t, wb.SetCellValue(sheet, "B7", "Describe your approach to penetration testing and how findings are remediated over time."))
	require.NoError(t, wb.SetCellFormula(sheet, "C7", "SUM(C6)"))

	// Summary row to be skipped.
	require.NoError(t, wb.SetCellValue(sheet, "B9", "Total questions"))

	return wb, models.SheetStructure{
		SheetName:    sheet,
		HeaderRow:    3,
		FirstDataRow: 4,
		IDCol:        "A",
		QuestionCol:  "B",
		ScoreCol:     "C",
		ResponseCol:  "D",
	}
}

func TestExtractQuestionsWithCategoryHeader(t *testing.T) {
	wb, structure := questionnaireFixture(t)
	defer wb.Close()

	e := NewExtractor(common.GetLogger())
	questions, err := e.Extract(wb, structure)
	require.NoError(t, err)
	require.Len(t, questions, 2)

	assert.Equal(t, "SEC-1", questions[0].ID)
	assert.Equal(t, "Security", questions[0].Category)
	assert.Equal(t, 6, questions[0].Row)
	assert.Equal(t, "D", questions[0].ResponseCol)

	assert.Equal(t, "SEC-2", questions[1].ID)
	assert.Equal(t, "Security", questions[1].Category)
	assert.True(t, questions[1].ScoreIsFormula)
	assert.False(t, questions[0].ScoreIsFormula)
}

func TestExtractSkipsTotalRows(t *testing.T) {
	wb, structure := questionnaireFixture(t)
	defer wb.Close()

	e := NewExtractor(common.GetLogger())
	questions, err := e.Extract(wb, structure)
	require.NoError(t, err)
	for _, q := range questions {
		assert.NotContains(t, q.Question, "Total")
	}
}

func TestClassifyQuestionOrdering(t *testing.T) {
	cases := []struct {
		question string
		want     models.QuestionType
	}{
		{"Please provide your company name and registered address.", models.QuestionCompanyInfo},
		{"Provide a reference from a similar project in the last three years.", models.QuestionReference},
		{"Does the system support multi-factor authentication?", models.QuestionBinary},
		{"The solution must provide an audit trail.", models.QuestionBinary},
		{"Describe your disaster recovery strategy.", models.QuestionNarrative},
		{"Yes/No: data residency in Australia", models.QuestionBinary},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyQuestion(tc.question), "question: %s", tc.question)
	}
}

func TestClassifyQuestionFallback(t *testing.T) {
	// Short statement without a question mark reads as binary.
	assert.Equal(t, models.QuestionBinary, classifyQuestion("Data residency within Australia."))
	// Long prose without interrogative lead reads as narrative.
	long := "Vendors are expected to set out in full their proposed governance arrangements, including the cadence of steering committee meetings, reporting lines, and the escalation path that applies when a milestone is forecast to slip by more than ten business days?"
	assert.Equal(t, models.QuestionNarrative, classifyQuestion(long))
}
