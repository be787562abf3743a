package artifacts

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// BlockKind discriminates the flattened markdown blocks the document
// builders understand.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockParagraph
	BlockBullets
)

// Block is one renderable unit of markdown body text.
type Block struct {
	Kind  BlockKind
	Level int
	Text  string
	Items []string
}

// ParseMarkdown flattens markdown into heading, paragraph, and bullet
// blocks. Inline styling is dropped; only structure survives, which is
// all the DOCX and PDF builders consume.
func ParseMarkdown(src string) []Block {
	source := []byte(src)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []Block
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			blocks = append(blocks, Block{
				Kind:  BlockHeading,
				Level: n.Level,
				Text:  nodeText(n, source),
			})
		case *ast.Paragraph:
			if body := nodeText(n, source); body != "" {
				blocks = append(blocks, Block{Kind: BlockParagraph, Text: body})
			}
		case *ast.List:
			var items []string
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				if body := nodeText(item, source); body != "" {
					items = append(items, body)
				}
			}
			if len(items) > 0 {
				blocks = append(blocks, Block{Kind: BlockBullets, Items: items})
			}
		}
	}
	return blocks
}

// nodeText collects the raw text segments under a node.
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := n.(*ast.Text); ok {
			sb.Write(textNode.Segment.Value(source))
			if textNode.SoftLineBreak() || textNode.HardLineBreak() {
				sb.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
