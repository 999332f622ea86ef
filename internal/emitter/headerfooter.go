package emitter

import (
	"context"

	"github.com/dgallion1/md2docx/internal/branding"
	"github.com/dgallion1/md2docx/internal/docx"
)

const pageLabel = "Page "

// headerFooter builds the three-zone line "left<TAB>center<TAB>right".
// It returns nil when the record has no text and, for footers, no page
// number.
func (b *builder) headerFooter(ctx context.Context, hf branding.HeaderFooterConfig, footer bool) *docx.HeaderFooter {
	pageNumber := footer && hf.IncludePageNumber
	if !hf.HasText() && !pageNumber {
		return nil
	}

	props := docx.RunProps{
		Font:  hf.FontName,
		Size:  hf.FontSize.HalfPoints(),
		Color: hex(hf.Color),
	}
	zones := map[branding.Position]string{
		branding.Left:   hf.LeftText,
		branding.Center: hf.Text,
		branding.Right:  hf.RightText,
	}
	logo := b.logo(ctx, hf)
	logoPos := hf.LogoPosition
	if logoPos == "" {
		logoPos = branding.Left
	}
	pagePos := hf.PageNumberPosition
	if pagePos == "" {
		pagePos = branding.Right
	}

	style := styleHeader
	if footer {
		style = styleFooter
	}
	p := &docx.Paragraph{Props: docx.ParaProps{
		Style: style,
		Tabs:  []docx.TabStop{{Kind: "center", Pos: b.width / 2}, {Kind: "right", Pos: b.width}},
	}}

	for i, pos := range []branding.Position{branding.Left, branding.Center, branding.Right} {
		if i > 0 {
			p.Content = append(p.Content, &docx.Run{Props: props, Text: "\t"})
		}
		text := zones[pos]
		hasLogo := logo != nil && logoPos == pos
		if hasLogo {
			p.Content = append(p.Content, &docx.Run{Image: logo})
		} else if text != "" {
			p.Content = append(p.Content, &docx.Run{Props: props, Text: text})
		}
		if pageNumber && pagePos == pos {
			label := pageLabel
			if hasLogo || text != "" {
				label = " - " + pageLabel
			}
			p.Content = append(p.Content,
				&docx.Run{Props: props, Text: label},
				&docx.Field{Instr: "PAGE", Placeholder: "1", Props: props},
			)
		}
	}
	return &docx.HeaderFooter{Paragraphs: []*docx.Paragraph{p}}
}

// logo fetches the configured logo. Failures are logged and yield nil.
func (b *builder) logo(ctx context.Context, hf branding.HeaderFooterConfig) *docx.Image {
	if hf.LogoPath == "" {
		return nil
	}
	if b.images == nil {
		b.log.Warn("logo configured but no image resolver available", "ref", hf.LogoPath)
		return nil
	}
	img, err := b.images.Fetch(ctx, hf.LogoPath)
	if err != nil {
		b.log.Warn("logo unavailable, continuing without it", "ref", hf.LogoPath, "error", err)
		return nil
	}
	width := hf.LogoWidth
	if width <= 0 {
		width = branding.DefaultLogoWidth
	}
	height := branding.Inches(img.AspectHeight(float64(width)))
	return &docx.Image{
		Data:   img.Data,
		Ext:    img.Ext(),
		Width:  width.EMU(),
		Height: height.EMU(),
		Name:   "Logo",
	}
}
