package emitter

import (
	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/dgallion1/md2docx/internal/docx"
)

// styledListLevels is the number of nesting levels with a dedicated list
// style. Deeper levels reuse the base style and rely on indentation.
const styledListLevels = 3

// maxNumLevel is the deepest level a numbering definition carries.
const maxNumLevel = 8

const (
	taskChecked   = "☒ "
	taskUnchecked = "☐ "
)

// list renders a list at the given nesting depth. Nested lists are
// rendered in place, before the parent's remaining items.
func (b *builder) list(n *doctree.List, depth int) {
	if n == nil {
		return
	}
	numID := b.numInstance(n, depth)
	indent := b.cfg.ListIndent.Twips() * (depth + 1)
	ilvl := min(depth, maxNumLevel)

	for _, item := range n.Items {
		if item == nil {
			continue
		}
		numbered := false
		for _, child := range item.Children {
			switch c := child.(type) {
			case *doctree.List:
				b.list(c, depth+1)
			case *doctree.Paragraph:
				b.add(b.listParagraph(n.Ordered, depth, indent, c.Children, item.Task, numID, ilvl, numbered))
				numbered = true
			case *doctree.Heading:
				b.add(b.listParagraph(n.Ordered, depth, indent, c.Children, item.Task, numID, ilvl, numbered))
				numbered = true
			case *doctree.CodeBlock:
				b.add(b.codeBlock(c, indent))
			default:
				b.block(child)
			}
		}
	}
}

// listParagraph builds one entry. Only the first paragraph of an item
// carries the bullet or number; later ones continue at the same indent.
func (b *builder) listParagraph(ordered bool, depth, indent int, inlines []doctree.Inline, task *bool, numID, ilvl int, continuation bool) *docx.Paragraph {
	p := &docx.Paragraph{Props: docx.ParaProps{
		Style:      listStyleID(ordered, depth),
		IndentLeft: indent,
	}}
	if !continuation {
		p.Props.Num = &docx.NumRef{NumID: numID, Level: ilvl}
		p.Props.Hanging = listHanging
		if task != nil {
			mark := taskUnchecked
			if *task {
				mark = taskChecked
			}
			p.Content = append(p.Content, &docx.Run{Props: b.bodyProps(), Text: mark})
		}
	}
	p.Content = append(p.Content, b.runs(inlines, b.bodyProps())...)
	return p
}

// numInstance returns the numbering instance for a list. Bullet lists
// share one instance; every ordered list gets its own so numbering
// restarts at its start value.
func (b *builder) numInstance(n *doctree.List, depth int) int {
	if !n.Ordered {
		if b.bulletNum == 0 {
			b.bulletNum = b.pkg.Numbering.AddNumInstance(bulletAbstractID, 0, 0)
		}
		return b.bulletNum
	}
	start := n.Start
	if start < 1 {
		start = 1
	}
	return b.pkg.Numbering.AddNumInstance(decimalAbstractID, min(depth, maxNumLevel), start)
}
