package emitter

import (
	"fmt"

	"github.com/dgallion1/md2docx/internal/branding"
	"github.com/dgallion1/md2docx/internal/docx"
)

const (
	styleNormal    = "Normal"
	styleQuote     = "IntenseQuote"
	styleHeader    = "Header"
	styleFooter    = "Footer"
	styleTable     = "TableGrid"
	styleHyperlink = "Hyperlink"

	bulletAbstractID  = 0
	decimalAbstractID = 1
)

// quoteColor is the accent used for quote text and its rule.
const quoteColor = "4472C4"

var bulletGlyphs = []string{"•", "◦", "▪"}

func headingStyleID(level int) string {
	return fmt.Sprintf("Heading%d", level)
}

// listStyleID picks the list style for a depth: "ListBullet",
// "ListBullet2", "ListBullet3", then the base style again.
func listStyleID(ordered bool, depth int) string {
	base := "ListBullet"
	if ordered {
		base = "ListNumber"
	}
	if depth == 0 || depth >= styledListLevels {
		return base
	}
	return fmt.Sprintf("%s%d", base, depth+1)
}

func listStyleName(id string) string {
	switch id {
	case "ListBullet":
		return "List Bullet"
	case "ListNumber":
		return "List Number"
	}
	// "ListBullet2" -> "List Bullet 2"
	return listStyleName(id[:len(id)-1]) + " " + id[len(id)-1:]
}

// styles derives the style sheet from the configuration.
func styles(cfg *branding.Config) []docx.Style {
	body := cfg.BodyFont
	out := []docx.Style{{
		ID:      styleNormal,
		Name:    "Normal",
		Type:    docx.ParagraphStyle,
		Default: true,
		Run: docx.RunProps{
			Font:   body.Name,
			Size:   body.Size.HalfPoints(),
			Color:  hex(body.Color),
			Bold:   body.Bold,
			Italic: body.Italic,
		},
	}}

	for level := 1; level <= 6; level++ {
		h := cfg.Heading(level)
		before, after := h.SpaceBefore.Twips(), h.SpaceAfter.Twips()
		outline := level - 1
		out = append(out, docx.Style{
			ID:      headingStyleID(level),
			Name:    fmt.Sprintf("heading %d", level),
			Type:    docx.ParagraphStyle,
			BasedOn: styleNormal,
			Next:    styleNormal,
			Para: docx.ParaProps{
				KeepNext:     true,
				SpaceBefore:  &before,
				SpaceAfter:   &after,
				OutlineLevel: &outline,
			},
			Run: docx.RunProps{
				Font:   h.FontName,
				Size:   h.FontSize.HalfPoints(),
				Color:  hex(h.Color),
				Bold:   h.Bold,
				Italic: h.Italic,
			},
		})
	}

	indent := cfg.ListIndent.Twips()
	for _, ordered := range []bool{false, true} {
		for depth := range styledListLevels {
			id := listStyleID(ordered, depth)
			out = append(out, docx.Style{
				ID:      id,
				Name:    listStyleName(id),
				Type:    docx.ParagraphStyle,
				BasedOn: styleNormal,
				Para:    docx.ParaProps{IndentLeft: indent * (depth + 1), Hanging: listHanging},
			})
		}
	}

	quoteSpace := 360
	out = append(out, docx.Style{
		ID:      styleQuote,
		Name:    "Intense Quote",
		Type:    docx.ParagraphStyle,
		BasedOn: styleNormal,
		Next:    styleNormal,
		Para: docx.ParaProps{
			BorderTop:    &docx.Border{Style: "single", Size: 4, Space: 10, Color: quoteColor},
			BorderBottom: &docx.Border{Style: "single", Size: 4, Space: 10, Color: quoteColor},
			SpaceBefore:  &quoteSpace,
			SpaceAfter:   &quoteSpace,
			IndentLeft:   864,
			IndentRight:  864,
			Align:        docx.AlignCenter,
		},
		Run: docx.RunProps{Italic: true, Color: quoteColor},
	})

	width := cfg.Page.PrintableWidth().Twips()
	tabs := []docx.TabStop{{Kind: "center", Pos: width / 2}, {Kind: "right", Pos: width}}
	for _, hf := range []struct {
		id, name string
		cfg      branding.HeaderFooterConfig
	}{
		{styleHeader, "header", cfg.Header},
		{styleFooter, "footer", cfg.Footer},
	} {
		out = append(out, docx.Style{
			ID:      hf.id,
			Name:    hf.name,
			Type:    docx.ParagraphStyle,
			BasedOn: styleNormal,
			Para:    docx.ParaProps{Tabs: tabs},
			Run: docx.RunProps{
				Font:  hf.cfg.FontName,
				Size:  hf.cfg.FontSize.HalfPoints(),
				Color: hex(hf.cfg.Color),
			},
		})
	}

	out = append(out,
		docx.Style{
			ID:   styleHyperlink,
			Name: "Hyperlink",
			Type: docx.CharacterStyle,
			Run:  docx.RunProps{Color: cfg.LinkColor.Hex(), Underline: cfg.LinkUnderline},
		},
		docx.Style{
			ID:      styleTable,
			Name:    "Table Grid",
			Type:    docx.TableStyle,
			Borders: true,
		},
	)
	return out
}

// numbering defines one bullet and one decimal list, each with levels
// indented by the configured list indent.
func numbering(cfg *branding.Config) docx.Numbering {
	indent := cfg.ListIndent.Twips()
	bullet := docx.AbstractNum{ID: bulletAbstractID}
	decimal := docx.AbstractNum{ID: decimalAbstractID}
	for lvl := 0; lvl <= maxNumLevel; lvl++ {
		ind := indent * (lvl + 1)
		bullet.Levels = append(bullet.Levels, docx.NumLevel{
			Format:  "bullet",
			Text:    bulletGlyphs[lvl%len(bulletGlyphs)],
			Indent:  ind,
			Hanging: listHanging,
		})
		decimal.Levels = append(decimal.Levels, docx.NumLevel{
			Format:  "decimal",
			Text:    fmt.Sprintf("%%%d.", lvl+1),
			Indent:  ind,
			Hanging: listHanging,
		})
	}
	return docx.Numbering{Abstract: []docx.AbstractNum{bullet, decimal}}
}
