// Package emitter walks a document tree and builds a docx.Package under
// a resolved style configuration.
package emitter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dgallion1/md2docx/internal/branding"
	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/dgallion1/md2docx/internal/docx"
	"github.com/dgallion1/md2docx/internal/images"
)

// Fixed geometry in twips.
const (
	codeIndent       = 360 // 0.25in
	codeSpacing      = 120 // 6pt
	breakSpacing     = 240 // 12pt
	listHanging      = 360
	headerFooterEdge = 720 // 0.5in from the page edge
)

const breakRule = "__________________________________________________" // 50 underscores

// Emitter converts trees into packages. It holds only read-only
// collaborators, so one Emitter may serve concurrent Emit calls.
type Emitter struct {
	cfg    *branding.Config
	images images.Fetcher
	log    *slog.Logger
}

// New creates an emitter. fetcher may be nil, in which case configured
// logos are skipped with a warning.
func New(cfg *branding.Config, fetcher images.Fetcher, log *slog.Logger) *Emitter {
	if cfg == nil {
		cfg = branding.Defaults()
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Emitter{cfg: cfg, images: fetcher, log: log}
}

// Emit builds a package from blocks. ctx bounds logo fetches only;
// emission itself never fails.
func (e *Emitter) Emit(ctx context.Context, blocks []doctree.Block) *docx.Package {
	b := &builder{
		Emitter: e,
		pkg: &docx.Package{
			Core: docx.CoreProperties{
				Title:   e.cfg.Title,
				Creator: e.cfg.Author,
				Company: e.cfg.Company,
			},
			Section: section(e.cfg.Page),
		},
		width: e.cfg.Page.PrintableWidth().Twips(),
	}
	b.pkg.Styles = styles(e.cfg)
	b.pkg.Numbering = numbering(e.cfg)

	b.pkg.Header = b.headerFooter(ctx, e.cfg.Header, false)
	b.pkg.Footer = b.headerFooter(ctx, e.cfg.Footer, true)

	for _, blk := range blocks {
		b.block(blk)
	}
	return b.pkg
}

func section(p branding.PageConfig) docx.Section {
	return docx.Section{
		PageWidth:    p.Width.Twips(),
		PageHeight:   p.Height.Twips(),
		MarginTop:    p.MarginTop.Twips(),
		MarginBottom: p.MarginBottom.Twips(),
		MarginLeft:   p.MarginLeft.Twips(),
		MarginRight:  p.MarginRight.Twips(),
		HeaderOffset: headerFooterEdge,
		FooterOffset: headerFooterEdge,
	}
}

// builder is the state of one Emit call.
type builder struct {
	*Emitter
	pkg   *docx.Package
	width int // printable width in twips

	bulletNum int // shared bullet numbering instance, 0 until first use
}

func (b *builder) add(blk docx.Block) {
	b.pkg.Body = append(b.pkg.Body, blk)
}

// block dispatches one tree node. Unknown kinds are skipped.
func (b *builder) block(n doctree.Block) {
	switch n := n.(type) {
	case *doctree.Heading:
		b.heading(n)
	case *doctree.Paragraph:
		b.add(&docx.Paragraph{Content: b.runs(n.Children, b.bodyProps())})
	case *doctree.List:
		b.list(n, 0)
	case *doctree.CodeBlock:
		b.add(b.codeBlock(n, 0))
	case *doctree.BlockQuote:
		b.quote(n)
	case *doctree.ThematicBreak:
		b.thematicBreak()
	case *doctree.Table:
		b.table(n)
	}
}

func (b *builder) heading(n *doctree.Heading) {
	level := n.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	h := b.cfg.Heading(level)
	before, after := h.SpaceBefore.Twips(), h.SpaceAfter.Twips()
	props := docx.RunProps{
		Font:   h.FontName,
		Size:   h.FontSize.HalfPoints(),
		Color:  hex(h.Color),
		Bold:   h.Bold,
		Italic: h.Italic,
	}
	p := &docx.Paragraph{Props: docx.ParaProps{
		Style:       headingStyleID(level),
		SpaceBefore: &before,
		SpaceAfter:  &after,
	}}
	if text := doctree.PlainText(n.Children); text != "" {
		p.Content = []docx.Inline{&docx.Run{Props: props, Text: text}}
	}
	b.add(p)
}

// codeBlock renders a code block indented by extra twips beyond the
// fixed code indent.
func (b *builder) codeBlock(n *doctree.CodeBlock, extra int) *docx.Paragraph {
	spacing := codeSpacing
	p := &docx.Paragraph{Props: docx.ParaProps{
		Shading:     hex(b.cfg.CodeBackground),
		SpaceBefore: &spacing,
		SpaceAfter:  &spacing,
		IndentLeft:  codeIndent + extra,
	}}
	text := strings.TrimRight(n.Text, "\n")
	if text == "" {
		return p
	}
	base := b.codeProps()
	if b.cfg.CodeHighlightStyle != "" {
		p.Content = highlight(text, n.Language, b.cfg.CodeHighlightStyle, base)
	}
	if len(p.Content) == 0 {
		p.Content = []docx.Inline{&docx.Run{Props: base, Text: text}}
	}
	return p
}

// quote renders the direct paragraph children of a block quote. Other
// children are dropped.
func (b *builder) quote(n *doctree.BlockQuote) {
	for _, child := range n.Children {
		para, ok := child.(*doctree.Paragraph)
		if !ok || para == nil {
			b.log.Debug("dropping non-paragraph block quote child", "kind", kind(child))
			continue
		}
		b.add(&docx.Paragraph{
			Props:   docx.ParaProps{Style: styleQuote},
			Content: b.runs(para.Children, b.quoteProps()),
		})
	}
}

func (b *builder) thematicBreak() {
	spacing := breakSpacing
	b.add(&docx.Paragraph{
		Props: docx.ParaProps{
			Align:       docx.AlignCenter,
			SpaceBefore: &spacing,
			SpaceAfter:  &spacing,
		},
		Content: []docx.Inline{&docx.Run{Props: b.bodyProps(), Text: breakRule}},
	})
}

// table renders a table with the header's column count. Tables without
// a header row are skipped.
func (b *builder) table(n *doctree.Table) {
	cols := len(n.Header)
	if cols == 0 {
		return
	}
	aligns := make([]docx.Alignment, cols)
	for i := range aligns {
		aligns[i] = docx.AlignLeft
		if i < len(n.Alignments) {
			switch n.Alignments[i] {
			case doctree.AlignCenter:
				aligns[i] = docx.AlignCenter
			case doctree.AlignRight:
				aligns[i] = docx.AlignRight
			}
		}
	}

	row := func(cells []*doctree.Cell, header bool) *docx.TableRow {
		props := b.bodyProps()
		props.Bold = props.Bold || header
		tr := &docx.TableRow{Header: header, Cells: make([]*docx.TableCell, cols)}
		for i := range cols {
			p := &docx.Paragraph{Props: docx.ParaProps{Align: aligns[i]}}
			if i < len(cells) && cells[i] != nil {
				if text := doctree.PlainText(cells[i].Children); text != "" {
					p.Content = []docx.Inline{&docx.Run{Props: props, Text: text}}
				}
			}
			tr.Cells[i] = &docx.TableCell{Paragraphs: []*docx.Paragraph{p}}
		}
		return tr
	}

	t := &docx.Table{Style: styleTable, Columns: cols, Width: b.width}
	t.Rows = append(t.Rows, row(n.Header, true))
	for _, r := range n.Rows {
		t.Rows = append(t.Rows, row(r, false))
	}
	b.add(t)
	b.add(&docx.Paragraph{})
}

func kind(n doctree.Block) string {
	switch n.(type) {
	case *doctree.Heading:
		return "heading"
	case *doctree.Paragraph:
		return "paragraph"
	case *doctree.List:
		return "list"
	case *doctree.CodeBlock:
		return "block_code"
	case *doctree.BlockQuote:
		return "block_quote"
	case *doctree.ThematicBreak:
		return "thematic_break"
	case *doctree.Table:
		return "table"
	}
	return "unknown"
}

func hex(c *branding.Color) string {
	if c == nil {
		return ""
	}
	return c.Hex()
}
