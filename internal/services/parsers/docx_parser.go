package parsers

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"baliance.com/gooxml/document"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// DocxParser extracts paragraphs, heading-delimited sections, and
// row-major tables from word-processor documents.
type DocxParser struct {
	logger arbor.ILogger
}

// NewDocxParser creates a DOCX parser
func NewDocxParser(logger arbor.ILogger) *DocxParser {
	return &DocxParser{logger: logger}
}

func (p *DocxParser) Supports(ext string) bool {
	return ext == "docx" || ext == "doc"
}

func (p *DocxParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.Errorf(common.KindInvalidInput, "failed to open document %s: %v", filename, err)
	}

	var text strings.Builder
	var sections []models.Section
	var current *models.Section
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			sections = append(sections, *current)
			current = nil
		}
		body.Reset()
	}

	for _, para := range doc.Paragraphs() {
		var line strings.Builder
		for _, run := range para.Runs() {
			line.WriteString(run.Text())
		}
		paraText := strings.TrimSpace(line.String())
		if paraText == "" {
			continue
		}

		text.WriteString(paraText)
		text.WriteString("\n")

		if level := headingLevel(para); level > 0 {
			flush()
			current = &models.Section{Heading: paraText, Level: level}
		} else if current != nil {
			body.WriteString(paraText)
			body.WriteString("\n")
		}
	}
	flush()

	var tables []models.Table
	for _, table := range doc.Tables() {
		var rows [][]string
		for _, row := range table.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var cellText strings.Builder
				for _, para := range cell.Paragraphs() {
					for _, run := range para.Runs() {
						cellText.WriteString(run.Text())
					}
				}
				cells = append(cells, strings.TrimSpace(cellText.String()))
			}
			rows = append(rows, cells)
		}
		if len(rows) > 0 {
			tables = append(tables, models.Table{Rows: normalizeGrid(rows)})
		}
	}

	return &models.ParsedDoc{
		Text:      text.String(),
		PageCount: 1,
		Metadata:  map[string]string{"filename": filename},
		Tables:    tables,
		Sections:  sections,
	}, nil
}

// headingLevel reads the paragraph style; "Heading1".."Heading9" map to
// levels 1..9, anything else is body text.
func headingLevel(para document.Paragraph) int {
	ppr := para.X().PPr
	if ppr == nil || ppr.PStyle == nil {
		return 0
	}
	style := ppr.PStyle.ValAttr
	if !strings.HasPrefix(style, "Heading") {
		return 0
	}
	level, err := strconv.Atoi(strings.TrimPrefix(style, "Heading"))
	if err != nil || level < 1 || level > 9 {
		return 1
	}
	return level
}

var _ interfaces.Parser = (*DocxParser)(nil)
