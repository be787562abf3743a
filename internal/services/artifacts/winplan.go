package artifacts

import (
	"fmt"

	"baliance.com/gooxml/color"
	"baliance.com/gooxml/document"
	"baliance.com/gooxml/measurement"
	"baliance.com/gooxml/schema/soo/wml"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
)

// WinPlanBuilder renders the internal Win-Plan DOCX from its data
// contract. Deterministic for the same input; no network, no storage.
type WinPlanBuilder struct {
	logger arbor.ILogger
}

func NewWinPlanBuilder(logger arbor.ILogger) *WinPlanBuilder {
	return &WinPlanBuilder{logger: logger}
}

// Build writes the Win-Plan document to outputPath.
func (b *WinPlanBuilder) Build(data *models.WinPlanData, outputPath string) error {
	doc := document.New()

	title := doc.AddParagraph()
	title.SetStyle("Title")
	title.AddRun().AddText(fmt.Sprintf("Win Plan: %s", data.ProjectName))

	subtitle := doc.AddParagraph()
	subtitle.AddRun().AddText(fmt.Sprintf("Client: %s    Solution: %s    Generated: %s",
		data.ClientName, data.SolutionName, data.GeneratedAt.Format("2006-01-02")))

	if len(data.Events) > 0 {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading1")
		heading.AddRun().AddText("Procurement Schedule")

		table := doc.AddTable()
		table.Properties().SetWidthPercent(100)
		table.Properties().Borders().SetAll(wml.ST_BorderSingle, color.Auto, 1*measurement.Point)

		header := table.AddRow()
		for _, label := range []string{"Milestone", "Type", "Date", "Notes"} {
			cell := header.AddCell()
			run := cell.AddParagraph().AddRun()
			run.Properties().SetBold(true)
			run.AddText(label)
		}
		for _, event := range data.Events {
			date := "TBC"
			if event.EventDate != nil {
				date = event.EventDate.Format("2006-01-02")
			}
			row := table.AddRow()
			row.AddCell().AddParagraph().AddRun().AddText(event.EventName)
			row.AddCell().AddParagraph().AddRun().AddText(string(event.EventType))
			row.AddCell().AddParagraph().AddRun().AddText(date)
			row.AddCell().AddParagraph().AddRun().AddText(event.Notes)
		}
	}

	if data.SolutionOverview != "" {
		b.addMarkdownSection(doc, "Solution Overview", data.SolutionOverview)
	}
	b.addBulletSection(doc, "Win Themes", data.WinThemes)
	b.addBulletSection(doc, "Differentiators", data.Differentiators)
	b.addBulletSection(doc, "Risk Areas", data.RiskAreas)

	if err := doc.SaveToFile(outputPath); err != nil {
		return common.Errorf(common.KindFatal, "failed to save win plan: %v", err)
	}
	b.logger.Info().Str("path", outputPath).Int("events", len(data.Events)).Msg("Win plan written")
	return nil
}

func (b *WinPlanBuilder) addMarkdownSection(doc *document.Document, title, body string) {
	heading := doc.AddParagraph()
	heading.SetStyle("Heading1")
	heading.AddRun().AddText(title)

	for _, block := range ParseMarkdown(body) {
		switch block.Kind {
		case BlockHeading:
			para := doc.AddParagraph()
			para.SetStyle(fmt.Sprintf("Heading%d", min(block.Level+1, 9)))
			para.AddRun().AddText(block.Text)
		case BlockParagraph:
			doc.AddParagraph().AddRun().AddText(block.Text)
		case BlockBullets:
			for _, item := range block.Items {
				para := doc.AddParagraph()
				para.SetStyle("ListParagraph")
				para.AddRun().AddText("• " + item)
			}
		}
	}
}

func (b *WinPlanBuilder) addBulletSection(doc *document.Document, title string, items []string) {
	if len(items) == 0 {
		return
	}
	heading := doc.AddParagraph()
	heading.SetStyle("Heading1")
	heading.AddRun().AddText(title)
	for _, item := range items {
		para := doc.AddParagraph()
		para.SetStyle("ListParagraph")
		para.AddRun().AddText("• " + item)
	}
}
