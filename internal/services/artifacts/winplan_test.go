package artifacts

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"baliance.com/gooxml/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
)

func TestWinPlanBuildRoundTrip(t *testing.T) {
	date := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	data := &models.WinPlanData{
		ProjectName:  "Transport RFP",
		ClientName:   "Department of Transport",
		SolutionName: "OpenPages with Watson",
		Events: []models.ScheduleEvent{
			{EventType: models.EventSubmissionDeadline, EventName: "Proposals due", EventDate: &date},
			{EventType: models.EventDemoDate, EventName: "Vendor demonstrations"},
		},
		SolutionOverview: "# Overview\n\nA unified GRC platform.",
		WinThemes:        []string{"One platform, total visibility"},
		GeneratedAt:      date,
	}

	path := filepath.Join(t.TempDir(), "Win_Plan.docx")
	b := NewWinPlanBuilder(common.GetLogger())
	require.NoError(t, b.Build(data, path))

	doc, err := document.Open(path)
	require.NoError(t, err)

	var text strings.Builder
	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			text.WriteString(run.Text())
		}
		text.WriteString("\n")
	}
	content := text.String()
	assert.Contains(t, content, "Win Plan: Transport RFP")
	assert.Contains(t, content, "Procurement Schedule")
	assert.Contains(t, content, "A unified GRC platform.")
	assert.Contains(t, content, "One platform, total visibility")

	tables := doc.Tables()
	require.Len(t, tables, 1)
	rows := tables[0].Rows()
	require.Len(t, rows, 3)

	var cells []string
	for _, row := range rows {
		for _, cell := range row.Cells() {
			var cellText strings.Builder
			for _, para := range cell.Paragraphs() {
				for _, run := range para.Runs() {
					cellText.WriteString(run.Text())
				}
			}
			cells = append(cells, cellText.String())
		}
	}
	assert.Contains(t, cells, "Proposals due")
	assert.Contains(t, cells, "2026-09-30")
	// An undated milestone renders as TBC.
	assert.Contains(t, cells, "TBC")
}

func TestWinPlanBuildSkipsEmptySections(t *testing.T) {
	data := &models.WinPlanData{
		ProjectName: "Minimal",
		ClientName:  "Client",
		GeneratedAt: time.Now().UTC(),
	}

	path := filepath.Join(t.TempDir(), "Win_Plan.docx")
	b := NewWinPlanBuilder(common.GetLogger())
	require.NoError(t, b.Build(data, path))

	doc, err := document.Open(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Tables())

	for _, para := range doc.Paragraphs() {
		for _, run := range para.Runs() {
			assert.NotContains(t, run.Text(), "Win Themes")
		}
	}
}
