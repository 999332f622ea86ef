package branding

import (
	"encoding/json"
	"fmt"
)

// Overrides is a partial configuration. Nil fields keep the value they
// are merged over; unknown keys in the source document are ignored.
type Overrides struct {
	Title   *string `json:"title,omitempty"`
	Author  *string `json:"author,omitempty"`
	Company *string `json:"company,omitempty"`

	Page     *PageOverrides `json:"page,omitempty"`
	BodyFont *FontOverrides `json:"body_font,omitempty"`

	Heading1 *HeadingOverrides `json:"heading1,omitempty"`
	Heading2 *HeadingOverrides `json:"heading2,omitempty"`
	Heading3 *HeadingOverrides `json:"heading3,omitempty"`
	Heading4 *HeadingOverrides `json:"heading4,omitempty"`
	Heading5 *HeadingOverrides `json:"heading5,omitempty"`
	Heading6 *HeadingOverrides `json:"heading6,omitempty"`

	CodeFont            *FontOverrides  `json:"code_font,omitempty"`
	CodeBackgroundColor json.RawMessage `json:"code_background_color,omitempty"` // null disables shading
	CodeHighlightStyle  *string         `json:"code_highlight_style,omitempty"`

	LinkColor     json.RawMessage `json:"link_color,omitempty"`
	LinkUnderline *bool           `json:"link_underline,omitempty"`

	ListIndent *float64 `json:"list_indent,omitempty"`

	Header *HeaderFooterOverrides `json:"header,omitempty"`
	Footer *HeaderFooterOverrides `json:"footer,omitempty"`
}

type PageOverrides struct {
	Width        *float64 `json:"width,omitempty"`
	Height       *float64 `json:"height,omitempty"`
	MarginTop    *float64 `json:"margin_top,omitempty"`
	MarginBottom *float64 `json:"margin_bottom,omitempty"`
	MarginLeft   *float64 `json:"margin_left,omitempty"`
	MarginRight  *float64 `json:"margin_right,omitempty"`
}

type FontOverrides struct {
	Name   *string         `json:"name,omitempty"`
	Size   *float64        `json:"size,omitempty"`
	Color  json.RawMessage `json:"color,omitempty"`
	Bold   *bool           `json:"bold,omitempty"`
	Italic *bool           `json:"italic,omitempty"`
}

type HeadingOverrides struct {
	FontName    *string         `json:"font_name,omitempty"`
	FontSize    *float64        `json:"font_size,omitempty"`
	Color       json.RawMessage `json:"color,omitempty"`
	Bold        *bool           `json:"bold,omitempty"`
	Italic      *bool           `json:"italic,omitempty"`
	SpaceBefore *float64        `json:"space_before,omitempty"`
	SpaceAfter  *float64        `json:"space_after,omitempty"`
}

type HeaderFooterOverrides struct {
	Text               *string         `json:"text,omitempty"`
	LeftText           *string         `json:"left_text,omitempty"`
	RightText          *string         `json:"right_text,omitempty"`
	FontName           *string         `json:"font_name,omitempty"`
	FontSize           *float64        `json:"font_size,omitempty"`
	Color              json.RawMessage `json:"color,omitempty"`
	IncludePageNumber  *bool           `json:"include_page_number,omitempty"`
	PageNumberPosition *string         `json:"page_number_position,omitempty"`
	LogoPath           *string         `json:"logo_path,omitempty"`
	LogoPosition       *string         `json:"logo_position,omitempty"`
	LogoWidth          *float64        `json:"logo_width,omitempty"`
}

// Resolve merges overrides over Defaults. A nil Overrides yields the
// defaults unchanged.
func Resolve(o *Overrides) (*Config, error) {
	cfg := Defaults()
	if err := cfg.Apply(o); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Apply merges o into c field by field. On error c is left unchanged.
func (c *Config) Apply(o *Overrides) error {
	if o == nil {
		return nil
	}
	next := *c

	setString(&next.Title, o.Title)
	setString(&next.Author, o.Author)
	setString(&next.Company, o.Company)

	if err := o.Page.apply(&next.Page); err != nil {
		return err
	}
	if err := o.BodyFont.apply(&next.BodyFont, "body_font"); err != nil {
		return err
	}
	for i, h := range []*HeadingOverrides{o.Heading1, o.Heading2, o.Heading3, o.Heading4, o.Heading5, o.Heading6} {
		if err := h.apply(&next.Headings[i], fmt.Sprintf("heading%d", i+1)); err != nil {
			return err
		}
	}
	if err := o.CodeFont.apply(&next.CodeFont, "code_font"); err != nil {
		return err
	}
	if err := applyOptionalColor(&next.CodeBackground, o.CodeBackgroundColor, "code_background_color"); err != nil {
		return err
	}
	setString(&next.CodeHighlightStyle, o.CodeHighlightStyle)

	if len(o.LinkColor) > 0 && !isNull(o.LinkColor) {
		col, err := parseColorJSON(o.LinkColor)
		if err != nil {
			return invalid("link_color", err)
		}
		next.LinkColor = col
	}
	setBool(&next.LinkUnderline, o.LinkUnderline)

	if o.ListIndent != nil {
		if err := positive("list_indent", *o.ListIndent); err != nil {
			return err
		}
		next.ListIndent = Inches(*o.ListIndent)
	}

	if err := o.Header.apply(&next.Header, "header"); err != nil {
		return err
	}
	if err := o.Footer.apply(&next.Footer, "footer"); err != nil {
		return err
	}

	*c = next
	return nil
}

func (o *PageOverrides) apply(dst *PageConfig) error {
	if o == nil {
		return nil
	}
	fields := []struct {
		name string
		src  *float64
		dst  *Inches
	}{
		{"page.width", o.Width, &dst.Width},
		{"page.height", o.Height, &dst.Height},
		{"page.margin_top", o.MarginTop, &dst.MarginTop},
		{"page.margin_bottom", o.MarginBottom, &dst.MarginBottom},
		{"page.margin_left", o.MarginLeft, &dst.MarginLeft},
		{"page.margin_right", o.MarginRight, &dst.MarginRight},
	}
	for _, f := range fields {
		if f.src == nil {
			continue
		}
		if err := positive(f.name, *f.src); err != nil {
			return err
		}
		*f.dst = Inches(*f.src)
	}
	if dst.PrintableWidth() <= 0 {
		return invalid("page", fmt.Errorf("%w: margins leave no printable width", ErrInvalidDimension))
	}
	return nil
}

func (o *FontOverrides) apply(dst *FontConfig, field string) error {
	if o == nil {
		return nil
	}
	setString(&dst.Name, o.Name)
	if o.Size != nil {
		if err := positive(field+".size", *o.Size); err != nil {
			return err
		}
		dst.Size = Points(*o.Size)
	}
	if err := applyOptionalColor(&dst.Color, o.Color, field+".color"); err != nil {
		return err
	}
	setBool(&dst.Bold, o.Bold)
	setBool(&dst.Italic, o.Italic)
	return nil
}

func (o *HeadingOverrides) apply(dst *HeadingConfig, field string) error {
	if o == nil {
		return nil
	}
	setString(&dst.FontName, o.FontName)
	for _, f := range []struct {
		name string
		src  *float64
		dst  *Points
	}{
		{field + ".font_size", o.FontSize, &dst.FontSize},
		{field + ".space_before", o.SpaceBefore, &dst.SpaceBefore},
		{field + ".space_after", o.SpaceAfter, &dst.SpaceAfter},
	} {
		if f.src == nil {
			continue
		}
		if err := positive(f.name, *f.src); err != nil {
			return err
		}
		*f.dst = Points(*f.src)
	}
	if err := applyOptionalColor(&dst.Color, o.Color, field+".color"); err != nil {
		return err
	}
	setBool(&dst.Bold, o.Bold)
	setBool(&dst.Italic, o.Italic)
	return nil
}

func (o *HeaderFooterOverrides) apply(dst *HeaderFooterConfig, field string) error {
	if o == nil {
		return nil
	}
	setString(&dst.Text, o.Text)
	setString(&dst.LeftText, o.LeftText)
	setString(&dst.RightText, o.RightText)
	setString(&dst.FontName, o.FontName)
	if o.FontSize != nil {
		if err := positive(field+".font_size", *o.FontSize); err != nil {
			return err
		}
		dst.FontSize = Points(*o.FontSize)
	}
	if err := applyOptionalColor(&dst.Color, o.Color, field+".color"); err != nil {
		return err
	}
	setBool(&dst.IncludePageNumber, o.IncludePageNumber)
	if o.PageNumberPosition != nil {
		p, err := position(field+".page_number_position", *o.PageNumberPosition)
		if err != nil {
			return err
		}
		dst.PageNumberPosition = p
	}
	setString(&dst.LogoPath, o.LogoPath)
	if o.LogoPosition != nil {
		p, err := position(field+".logo_position", *o.LogoPosition)
		if err != nil {
			return err
		}
		dst.LogoPosition = p
	}
	if o.LogoWidth != nil {
		if err := positive(field+".logo_width", *o.LogoWidth); err != nil {
			return err
		}
		dst.LogoWidth = Inches(*o.LogoWidth)
	}
	return nil
}

func applyOptionalColor(dst **Color, raw json.RawMessage, field string) error {
	if len(raw) == 0 {
		return nil
	}
	if isNull(raw) {
		*dst = nil
		return nil
	}
	col, err := parseColorJSON(raw)
	if err != nil {
		return invalid(field, err)
	}
	*dst = &col
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
