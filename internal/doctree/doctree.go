package doctree

import "strings"

// Block is a block-level node. The set of implementations is closed.
type Block interface {
	blockNode()
}

// Inline is an inline node inside a heading, paragraph, cell or link.
type Inline interface {
	inlineNode()
}

// Heading is an ATX or setext heading. Level is nominally 1..6.
type Heading struct {
	Level    int
	Children []Inline
}

// Paragraph is a run of inline content.
type Paragraph struct {
	Children []Inline
}

// List is an ordered or bullet list.
type List struct {
	Ordered bool
	Start   int // first number of an ordered list
	Items   []*ListItem
}

// ListItem holds the blocks of one list entry. A nested List among
// Children produces the next nesting level.
type ListItem struct {
	Children []Block
	Task     *bool // non-nil for GFM task items
}

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	Language string
	Text     string
}

type BlockQuote struct {
	Children []Block
}

type ThematicBreak struct{}

// Table is a GFM table. A nil Header means the header row was absent.
type Table struct {
	Header     []*Cell
	Alignments []Alignment
	Rows       [][]*Cell
}

// Cell is one table cell.
type Cell struct {
	Children []Inline
}

// Alignment is a table column alignment.
type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return ""
}

func (*Heading) blockNode()       {}
func (*Paragraph) blockNode()     {}
func (*List) blockNode()          {}
func (*CodeBlock) blockNode()     {}
func (*BlockQuote) blockNode()    {}
func (*ThematicBreak) blockNode() {}
func (*Table) blockNode()         {}

// Text is literal text.
type Text struct {
	Value string
}

type Strong struct {
	Children []Inline
}

type Emphasis struct {
	Children []Inline
}

type Strikethrough struct {
	Children []Inline
}

// CodeSpan is inline code.
type CodeSpan struct {
	Value string
}

// Link is a hyperlink. Autolinks carry the URL as a single Text child.
type Link struct {
	URL      string
	Children []Inline
}

// Image is an inline image reference; only its alt text is rendered.
type Image struct {
	URL string
	Alt string
}

// SoftBreak is a line ending inside a paragraph.
type SoftBreak struct{}

// LineBreak is a hard line break.
type LineBreak struct{}

func (*Text) inlineNode()          {}
func (*Strong) inlineNode()        {}
func (*Emphasis) inlineNode()      {}
func (*Strikethrough) inlineNode() {}
func (*CodeSpan) inlineNode()      {}
func (*Link) inlineNode()          {}
func (*Image) inlineNode()         {}
func (*SoftBreak) inlineNode()     {}
func (*LineBreak) inlineNode()     {}

// PlainText flattens inline content depth-first, left to right, dropping
// all styling. Soft breaks flatten to a space and hard breaks to a newline.
func PlainText(inlines []Inline) string {
	var sb strings.Builder
	writePlain(&sb, inlines)
	return sb.String()
}

func writePlain(sb *strings.Builder, inlines []Inline) {
	for _, in := range inlines {
		switch n := in.(type) {
		case *Text:
			sb.WriteString(n.Value)
		case *CodeSpan:
			sb.WriteString(n.Value)
		case *Strong:
			writePlain(sb, n.Children)
		case *Emphasis:
			writePlain(sb, n.Children)
		case *Strikethrough:
			writePlain(sb, n.Children)
		case *Link:
			writePlain(sb, n.Children)
		case *Image:
			sb.WriteString(n.Alt)
		case *SoftBreak:
			sb.WriteByte(' ')
		case *LineBreak:
			sb.WriteByte('\n')
		}
	}
}

// BlockText flattens every inline leaf under a block.
func BlockText(b Block) string {
	var sb strings.Builder
	writeBlock(&sb, b)
	return sb.String()
}

func writeBlock(sb *strings.Builder, b Block) {
	switch n := b.(type) {
	case *Heading:
		writePlain(sb, n.Children)
	case *Paragraph:
		writePlain(sb, n.Children)
	case *CodeBlock:
		sb.WriteString(n.Text)
	case *List:
		for _, it := range n.Items {
			if it == nil {
				continue
			}
			for _, c := range it.Children {
				writeBlock(sb, c)
			}
		}
	case *BlockQuote:
		for _, c := range n.Children {
			writeBlock(sb, c)
		}
	case *Table:
		for _, c := range n.Header {
			if c != nil {
				writePlain(sb, c.Children)
			}
		}
		for _, row := range n.Rows {
			for _, c := range row {
				if c != nil {
					writePlain(sb, c.Children)
				}
			}
		}
	}
}
