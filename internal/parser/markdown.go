package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser turns CommonMark + GFM source into a document tree.
// It is safe for concurrent use.
type MarkdownParser struct {
	md goldmark.Markdown
}

func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{md: goldmark.New(goldmark.WithExtensions(extension.GFM))}
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]doctree.Block, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return p.ParseBytes(src), nil
}

// ParseBytes never fails; markdown has no invalid input.
func (p *MarkdownParser) ParseBytes(src []byte) []doctree.Block {
	doc := p.md.Parser().Parse(text.NewReader(src))
	b := &treeBuilder{src: src}
	return b.blocks(doc)
}

type treeBuilder struct {
	src []byte
}

func (b *treeBuilder) blocks(parent ast.Node) []doctree.Block {
	var out []doctree.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if blk := b.block(n); blk != nil {
			out = append(out, blk)
		}
	}
	return out
}

// block converts one goldmark block. Raw HTML and anything unknown
// yields nil and is skipped.
func (b *treeBuilder) block(n ast.Node) doctree.Block {
	switch node := n.(type) {
	case *ast.Heading:
		return &doctree.Heading{Level: node.Level, Children: b.inlines(node)}
	case *ast.Paragraph, *ast.TextBlock:
		return &doctree.Paragraph{Children: b.inlines(node)}
	case *ast.List:
		list := &doctree.List{Ordered: node.IsOrdered(), Start: node.Start}
		for it := node.FirstChild(); it != nil; it = it.NextSibling() {
			if li, ok := it.(*ast.ListItem); ok {
				list.Items = append(list.Items, b.listItem(li))
			}
		}
		return list
	case *ast.FencedCodeBlock:
		return &doctree.CodeBlock{Language: string(node.Language(b.src)), Text: b.lines(node)}
	case *ast.CodeBlock:
		return &doctree.CodeBlock{Text: b.lines(node)}
	case *ast.Blockquote:
		return &doctree.BlockQuote{Children: b.blocks(node)}
	case *ast.ThematicBreak:
		return &doctree.ThematicBreak{}
	case *east.Table:
		return b.table(node)
	}
	return nil
}

func (b *treeBuilder) listItem(li *ast.ListItem) *doctree.ListItem {
	item := &doctree.ListItem{Children: b.blocks(li)}
	if first := li.FirstChild(); first != nil {
		if box, ok := first.FirstChild().(*east.TaskCheckBox); ok {
			checked := box.IsChecked
			item.Task = &checked
		}
	}
	return item
}

func (b *treeBuilder) lines(n ast.Node) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(b.src))
	}
	return sb.String()
}

func (b *treeBuilder) table(t *east.Table) *doctree.Table {
	out := &doctree.Table{}
	for _, a := range t.Alignments {
		out.Alignments = append(out.Alignments, alignment(a))
	}
	for n := t.FirstChild(); n != nil; n = n.NextSibling() {
		switch row := n.(type) {
		case *east.TableHeader:
			out.Header = b.cells(row)
		case *east.TableRow:
			out.Rows = append(out.Rows, b.cells(row))
		}
	}
	return out
}

func (b *treeBuilder) cells(row ast.Node) []*doctree.Cell {
	cells := []*doctree.Cell{}
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableCell); ok {
			cells = append(cells, &doctree.Cell{Children: b.inlines(c)})
		}
	}
	return cells
}

func alignment(a east.Alignment) doctree.Alignment {
	switch a {
	case east.AlignLeft:
		return doctree.AlignLeft
	case east.AlignCenter:
		return doctree.AlignCenter
	case east.AlignRight:
		return doctree.AlignRight
	}
	return doctree.AlignNone
}

func (b *treeBuilder) inlines(parent ast.Node) []doctree.Inline {
	var out []doctree.Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = b.inline(out, n)
	}
	return out
}

func (b *treeBuilder) inline(out []doctree.Inline, n ast.Node) []doctree.Inline {
	switch node := n.(type) {
	case *ast.Text:
		if v := node.Segment.Value(b.src); len(v) > 0 {
			out = append(out, &doctree.Text{Value: string(v)})
		}
		switch {
		case node.HardLineBreak():
			out = append(out, &doctree.LineBreak{})
		case node.SoftLineBreak():
			out = append(out, &doctree.SoftBreak{})
		}
	case *ast.String:
		out = append(out, &doctree.Text{Value: string(node.Value)})
	case *ast.CodeSpan:
		out = append(out, &doctree.CodeSpan{Value: b.rawText(node)})
	case *ast.Emphasis:
		if node.Level >= 2 {
			out = append(out, &doctree.Strong{Children: b.inlines(node)})
		} else {
			out = append(out, &doctree.Emphasis{Children: b.inlines(node)})
		}
	case *east.Strikethrough:
		out = append(out, &doctree.Strikethrough{Children: b.inlines(node)})
	case *ast.Link:
		out = append(out, &doctree.Link{URL: string(node.Destination), Children: b.inlines(node)})
	case *ast.AutoLink:
		label := string(node.Label(b.src))
		out = append(out, &doctree.Link{
			URL:      string(node.URL(b.src)),
			Children: []doctree.Inline{&doctree.Text{Value: label}},
		})
	case *ast.Image:
		out = append(out, &doctree.Image{
			URL: string(node.Destination),
			Alt: doctree.PlainText(b.inlines(node)),
		})
	}
	return out
}

// rawText concatenates the text segments of a code span.
func (b *treeBuilder) rawText(n ast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(b.src))
		case *ast.String:
			sb.Write(t.Value)
		}
	}
	return sb.String()
}
