package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// PptxParser reads presentation archives directly: one logical page per
// slide, with table shapes extracted row-major.
type PptxParser struct {
	logger arbor.ILogger
}

// NewPptxParser creates a slides parser
func NewPptxParser(logger arbor.ILogger) *PptxParser {
	return &PptxParser{logger: logger}
}

func (p *PptxParser) Supports(ext string) bool {
	return ext == "pptx" || ext == "ppt"
}

func (p *PptxParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, common.Errorf(common.KindInvalidInput, "failed to open presentation %s: %v", filename, err)
	}

	slides := make(map[string]*zip.File)
	var names []string
	for _, file := range archive.File {
		if strings.HasPrefix(file.Name, "ppt/slides/slide") && strings.HasSuffix(file.Name, ".xml") {
			slides[file.Name] = file
			names = append(names, file.Name)
		}
	}
	if len(names) == 0 {
		return nil, common.Errorf(common.KindInvalidInput, "presentation %s contains no slides", filename)
	}
	// slide2.xml sorts after slide10.xml lexically; pad-free numeric sort.
	sort.Slice(names, func(i, j int) bool {
		return slideNumber(names[i]) < slideNumber(names[j])
	})

	var text strings.Builder
	var tables []models.Table

	for pageNum, name := range names {
		rc, err := slides[name].Open()
		if err != nil {
			p.logger.Warn().Err(err).Str("slide", name).Msg("Failed to open slide")
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		slideText, slideTables := parseSlideXML(content)
		text.WriteString(slideText)
		text.WriteString("\n\n")
		for _, rows := range slideTables {
			tables = append(tables, models.Table{Page: pageNum + 1, Rows: normalizeGrid(rows)})
		}
	}

	return &models.ParsedDoc{
		Text:      text.String(),
		PageCount: len(names),
		Metadata:  map[string]string{"filename": filename},
		Tables:    tables,
	}, nil
}

func slideNumber(name string) int {
	var n int
	fmt.Sscanf(name, "ppt/slides/slide%d.xml", &n)
	return n
}

// parseSlideXML walks the slide markup collecting drawing text runs
// (a:t) and table shapes (a:tbl > a:tr > a:tc).
func parseSlideXML(content []byte) (string, [][][]string) {
	decoder := xml.NewDecoder(bytes.NewReader(content))

	var text strings.Builder
	var tables [][][]string

	var curTable [][]string
	var curRow []string
	var cellText strings.Builder
	inTable, inCell, inText := false, false, false

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				inTable = true
				curTable = nil
			case "tr":
				if inTable {
					curRow = nil
				}
			case "tc":
				if inTable {
					inCell = true
					cellText.Reset()
				}
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if len(curTable) > 0 {
					tables = append(tables, curTable)
				}
				inTable = false
			case "tr":
				if inTable && curRow != nil {
					curTable = append(curTable, curRow)
				}
			case "tc":
				if inTable {
					curRow = append(curRow, strings.TrimSpace(cellText.String()))
					inCell = false
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				if inCell {
					cellText.Write(t)
				} else {
					text.Write(t)
					text.WriteString(" ")
				}
			}
		}
	}

	return strings.TrimSpace(text.String()), tables
}

var _ interfaces.Parser = (*PptxParser)(nil)
