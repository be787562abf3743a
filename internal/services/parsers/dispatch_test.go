package parsers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
)

type fakeParser struct {
	ext    string
	parsed *models.ParsedDoc
	err    error
	calls  int
}

func (f *fakeParser) Supports(ext string) bool { return ext == f.ext }

func (f *fakeParser) Parse(ctx context.Context, data []byte, filename string) (*models.ParsedDoc, error) {
	f.calls++
	return f.parsed, f.err
}

func TestDispatchRoutesByExtension(t *testing.T) {
	pdf := &fakeParser{ext: "pdf", parsed: &models.ParsedDoc{Text: "pdf text", PageCount: 2}}
	docx := &fakeParser{ext: "docx", parsed: &models.ParsedDoc{Text: "docx text"}}
	d := NewDispatcherWithParsers(common.GetLogger(), pdf, docx)

	doc, err := d.Parse(context.Background(), []byte("x"), "Tender_Document.PDF")
	require.NoError(t, err)
	assert.Equal(t, "pdf text", doc.Text)
	assert.Equal(t, 1, pdf.calls)
	assert.Zero(t, docx.calls)
}

func TestDispatchUnsupportedExtension(t *testing.T) {
	d := NewDispatcherWithParsers(common.GetLogger(), &fakeParser{ext: "pdf"})

	_, err := d.Parse(context.Background(), []byte("x"), "archive.zip")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindInvalidInput))
	assert.Contains(t, err.Error(), "zip")
}

func TestSupportedExtensions(t *testing.T) {
	d := NewDispatcherWithParsers(common.GetLogger(),
		NewCSVParser(common.GetLogger()),
		NewXlsxParser(common.GetLogger()))

	exts := d.SupportedExtensions()
	assert.Contains(t, exts, "csv")
	assert.Contains(t, exts, "xlsx")
	assert.NotContains(t, exts, "pdf")
}

func TestCSVParse(t *testing.T) {
	p := NewCSVParser(common.GetLogger())
	data := []byte("Item,Qty,Unit Cost\nLicense,100,12.50\n\nSupport,1,5000\n")

	doc, err := p.Parse(context.Background(), data, "pricing.csv")
	require.NoError(t, err)

	require.Len(t, doc.Tables, 1)
	assert.Len(t, doc.Tables[0].Rows, 3)
	assert.Equal(t, []string{"Item", "Qty", "Unit Cost"}, doc.Tables[0].Rows[0])
	assert.Equal(t, 1, doc.PageCount)
	assert.Contains(t, doc.Text, "License\t100\t12.50")
}

func TestCSVParseLatin1Fallback(t *testing.T) {
	p := NewCSVParser(common.GetLogger())
	// 0xE9 is é in Latin-1 and invalid as a standalone UTF-8 byte.
	data := []byte{'c', 'a', 'f', 0xE9, ',', '1', '\n'}

	doc, err := p.Parse(context.Background(), data, "legacy.csv")
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	assert.Equal(t, "café", doc.Tables[0].Rows[0][0])
}

func TestCSVParseRaggedRows(t *testing.T) {
	p := NewCSVParser(common.GetLogger())
	data := []byte("a,b,c\nd\ne,f\n")

	doc, err := p.Parse(context.Background(), data, "ragged.csv")
	require.NoError(t, err)
	require.Len(t, doc.Tables, 1)
	// normalizeGrid pads every row to the widest width.
	for _, row := range doc.Tables[0].Rows {
		assert.Len(t, row, 3)
	}
}
