package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
)

const (
	pageWidth   = 210.0
	leftMargin  = 15.0
	rightMargin = 15.0
	bodyWidth   = pageWidth - leftMargin - rightMargin
	lineHeight  = 5.0
)

// RFIPDFBuilder renders the branded RFI response PDF from its data
// contract. The document is built in two passes: the first discovers
// which page each section lands on, the second emits the table of
// contents with real page numbers and a deferred page-N-of-M footer.
type RFIPDFBuilder struct {
	fontDir    string
	fontFamily string
	logger     arbor.ILogger
}

func NewRFIPDFBuilder(fontDir string, logger arbor.ILogger) *RFIPDFBuilder {
	b := &RFIPDFBuilder{fontDir: fontDir, logger: logger}
	b.fontFamily = b.resolveFont()
	return b
}

// resolveFont looks for a UTF-8 face in the configured directory and a
// short platform search path, keeping the directory it was found in;
// built-in Arial (cp1252 glyphs only) is the fallback.
func (b *RFIPDFBuilder) resolveFont() string {
	candidates := []string{
		b.fontDir,
		"/usr/share/fonts/truetype/dejavu",
		"C:\\Windows\\Fonts",
	}
	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, "DejaVuSans.ttf")); err == nil {
			b.fontDir = dir
			return "DejaVuSans"
		}
	}
	return "Arial"
}

// Build writes the RFI response PDF to outputPath.
func (b *RFIPDFBuilder) Build(data *models.RFIDocData, outputPath string) error {
	// Pass one: layout only, collect section start pages.
	sectionPages := b.render(data, nil, nil)

	// Pass two: same layout plus the TOC.
	var out *fpdf.Fpdf
	b.render(data, sectionPages, func(pdf *fpdf.Fpdf) { out = pdf })

	if err := out.OutputFileAndClose(outputPath); err != nil {
		return common.Errorf(common.KindFatal, "failed to write RFI PDF: %v", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(outputPath, conf); err != nil {
		return common.Errorf(common.KindFatal, "generated PDF failed validation: %v", err)
	}
	pageCount, err := api.PageCountFile(outputPath)
	if err != nil {
		pageCount = 0
	}
	b.logger.Info().Str("path", outputPath).Int("sections", len(data.Sections)).Int("pages", pageCount).Msg("RFI response PDF written")
	return nil
}

// render runs one layout pass. When sectionPages is nil this is the
// discovery pass and the TOC page is emitted blank to keep page
// numbering identical between passes.
func (b *RFIPDFBuilder) render(data *models.RFIDocData, sectionPages map[string]int, keep func(*fpdf.Fpdf)) map[string]int {
	pdf := b.newDocument(data)
	pages := make(map[string]int)

	b.coverPage(pdf, data)

	if len(data.RevisionHistory) > 0 {
		pdf.AddPage()
		b.heading(pdf, 1, "Revision History")
		b.revisionTable(pdf, data.RevisionHistory)
	}

	pdf.AddPage()
	if sectionPages != nil {
		b.tableOfContents(pdf, data, sectionPages)
	}

	for _, section := range data.Sections {
		pdf.AddPage()
		pages[section.Title] = pdf.PageNo()
		b.heading(pdf, 1, section.Title)
		b.body(pdf, section.Body)
	}

	if keep != nil {
		keep(pdf)
	}
	return pages
}

func (b *RFIPDFBuilder) newDocument(data *models.RFIDocData) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", b.fontDir)
	if b.fontFamily != "Arial" {
		pdf.AddUTF8Font(b.fontFamily, "", b.fontFamily+".ttf")
		pdf.AddUTF8Font(b.fontFamily, "B", b.fontFamily+"-Bold.ttf")
	}
	pdf.SetMargins(leftMargin, 15, rightMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetCreationDate(data.GeneratedAt)
	pdf.SetModificationDate(data.GeneratedAt)
	pdf.SetTitle(data.Title, true)
	pdf.SetAuthor(data.CompanyName, true)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(b.fontFamily, "", 8)
		pdf.SetTextColor(128, 128, 128)
		footer := data.Copyright
		if footer == "" {
			footer = data.CompanyName
		}
		pdf.CellFormat(bodyWidth/2, 5, footer, "", 0, "L", false, 0, "")
		pdf.CellFormat(bodyWidth/2, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})
	return pdf
}

func (b *RFIPDFBuilder) coverPage(pdf *fpdf.Fpdf, data *models.RFIDocData) {
	pdf.AddPage()
	pdf.SetY(80)
	pdf.SetFont(b.fontFamily, "B", 24)
	pdf.MultiCell(0, 10, data.Title, "", "C", false)
	pdf.Ln(8)
	pdf.SetFont(b.fontFamily, "", 14)
	pdf.CellFormat(0, 8, "Prepared for "+data.ClientName, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 8, data.SolutionName, "", 1, "C", false, 0, "")
	pdf.Ln(12)
	pdf.SetFont(b.fontFamily, "", 11)
	pdf.CellFormat(0, 6, data.CompanyName, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, data.GeneratedAt.Format("2 January 2006"), "", 1, "C", false, 0, "")
}

func (b *RFIPDFBuilder) tableOfContents(pdf *fpdf.Fpdf, data *models.RFIDocData, sectionPages map[string]int) {
	b.heading(pdf, 1, "Contents")
	pdf.SetFont(b.fontFamily, "", 11)
	for _, section := range data.Sections {
		page, ok := sectionPages[section.Title]
		if !ok {
			continue
		}
		pdf.CellFormat(bodyWidth-15, 7, section.Title, "", 0, "L", false, 0, "")
		pdf.CellFormat(15, 7, fmt.Sprintf("%d", page), "", 1, "R", false, 0, "")
	}
}

func (b *RFIPDFBuilder) revisionTable(pdf *fpdf.Fpdf, revisions []models.RFIRevision) {
	widths := []float64{20, 28, 42, bodyWidth - 90}
	headers := []string{"Version", "Date", "Author", "Summary"}

	pdf.SetFont(b.fontFamily, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, label := range headers {
		pdf.CellFormat(widths[i], 7, label, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(b.fontFamily, "", 9)
	for _, rev := range revisions {
		pdf.CellFormat(widths[0], 7, rev.Version, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, rev.Date, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, rev.Author, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, rev.Summary, "1", 1, "L", false, 0, "")
	}
}

func (b *RFIPDFBuilder) heading(pdf *fpdf.Fpdf, level int, text string) {
	size := 16.0
	switch level {
	case 2:
		size = 13
	case 3:
		size = 11
	}
	pdf.SetFont(b.fontFamily, "B", size)
	pdf.MultiCell(0, 8, text, "", "L", false)
	pdf.Ln(2)
	pdf.SetFont(b.fontFamily, "", 10)
}

// body renders a section's markdown as paragraphs and bullet lists.
func (b *RFIPDFBuilder) body(pdf *fpdf.Fpdf, markdown string) {
	for _, block := range ParseMarkdown(markdown) {
		switch block.Kind {
		case BlockHeading:
			pdf.Ln(3)
			b.heading(pdf, block.Level+1, block.Text)
		case BlockParagraph:
			pdf.SetFont(b.fontFamily, "", 10)
			pdf.MultiCell(0, lineHeight, block.Text, "", "L", false)
			pdf.Ln(2)
		case BlockBullets:
			pdf.SetFont(b.fontFamily, "", 10)
			for _, item := range block.Items {
				pdf.SetX(leftMargin + 4)
				pdf.MultiCell(bodyWidth-4, lineHeight, "- "+item, "", "L", false)
			}
			pdf.Ln(2)
		}
	}
}
