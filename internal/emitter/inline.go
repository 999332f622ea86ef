package emitter

import (
	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/dgallion1/md2docx/internal/docx"
)

func (b *builder) bodyProps() docx.RunProps {
	f := b.cfg.BodyFont
	return docx.RunProps{
		Font:   f.Name,
		Size:   f.Size.HalfPoints(),
		Color:  hex(f.Color),
		Bold:   f.Bold,
		Italic: f.Italic,
	}
}

// quoteProps is the body font without its color, so the quote style's
// accent shows through.
func (b *builder) quoteProps() docx.RunProps {
	p := b.bodyProps()
	p.Color = ""
	return p
}

func (b *builder) codeProps() docx.RunProps {
	f := b.cfg.CodeFont
	return docx.RunProps{
		Font:   f.Name,
		Size:   f.Size.HalfPoints(),
		Color:  hex(f.Color),
		Bold:   f.Bold,
		Italic: f.Italic,
	}
}

func (b *builder) linkProps() docx.RunProps {
	p := b.bodyProps()
	p.Style = styleHyperlink
	p.Color = b.cfg.LinkColor.Hex()
	p.Underline = b.cfg.LinkUnderline
	return p
}

// runs renders inline content on top of base. Adjacent text with equal
// properties is merged into one run.
func (b *builder) runs(inlines []doctree.Inline, base docx.RunProps) []docx.Inline {
	var out []docx.Inline
	b.appendInlines(&out, inlines, base)
	return out
}

func (b *builder) appendInlines(out *[]docx.Inline, inlines []doctree.Inline, base docx.RunProps) {
	for _, in := range inlines {
		switch n := in.(type) {
		case *doctree.Text:
			appendText(out, base, n.Value)
		case *doctree.Strong:
			p := base
			p.Bold = true
			b.appendInlines(out, n.Children, p)
		case *doctree.Emphasis:
			p := base
			p.Italic = true
			b.appendInlines(out, n.Children, p)
		case *doctree.Strikethrough:
			p := base
			p.Strike = true
			b.appendInlines(out, n.Children, p)
		case *doctree.CodeSpan:
			p := b.codeProps()
			p.Shading = hex(b.cfg.CodeBackground)
			appendText(out, p, n.Value)
		case *doctree.Link:
			b.appendLink(out, n, base)
		case *doctree.Image:
			appendText(out, base, n.Alt)
		case *doctree.SoftBreak:
			appendText(out, base, " ")
		case *doctree.LineBreak:
			appendText(out, base, "\n")
		}
	}
}

// appendLink emits a hyperlink whose single run holds the flattened
// link text. A link without a target renders as plain runs.
func (b *builder) appendLink(out *[]docx.Inline, n *doctree.Link, base docx.RunProps) {
	if n.URL == "" {
		b.appendInlines(out, n.Children, base)
		return
	}
	text := doctree.PlainText(n.Children)
	if text == "" {
		text = n.URL
	}
	*out = append(*out, &docx.Hyperlink{
		URL:  n.URL,
		Runs: []*docx.Run{{Props: b.linkProps(), Text: text}},
	})
}

func appendText(out *[]docx.Inline, props docx.RunProps, text string) {
	if text == "" {
		return
	}
	if len(*out) > 0 {
		if prev, ok := (*out)[len(*out)-1].(*docx.Run); ok && prev.Image == nil && prev.Props == props {
			prev.Text += text
			return
		}
	}
	*out = append(*out, &docx.Run{Props: props, Text: text})
}
