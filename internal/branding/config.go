// Package branding holds the style configuration applied to generated
// documents: page geometry, fonts, colors, headers and footers.
package branding

// Inches is a length in inches.
type Inches float64

// Points is a length in typographic points (1/72 in).
type Points float64

// Twips returns the length in twentieths of a point.
func (in Inches) Twips() int { return int(float64(in)*1440 + 0.5) }

// EMU returns the length in English Metric Units.
func (in Inches) EMU() int64 { return int64(float64(in)*914400 + 0.5) }

func (p Points) Twips() int { return int(float64(p)*20 + 0.5) }

// HalfPoints returns the size in the unit used by font size properties.
func (p Points) HalfPoints() int { return int(float64(p)*2 + 0.5) }

// Position selects a zone in a header or footer line.
type Position string

const (
	Left   Position = "left"
	Center Position = "center"
	Right  Position = "right"
)

func (p Position) valid() bool {
	return p == Left || p == Center || p == Right
}

// Config is a fully resolved style configuration. It is treated as
// read-only once handed to the emitter.
type Config struct {
	Title   string
	Author  string
	Company string

	Page PageConfig

	BodyFont FontConfig
	Headings [6]HeadingConfig

	CodeFont           FontConfig
	CodeBackground     *Color
	CodeHighlightStyle string // chroma style name; empty disables highlighting

	LinkColor     Color
	LinkUnderline bool

	ListIndent Inches

	Header HeaderFooterConfig
	Footer HeaderFooterConfig
}

type PageConfig struct {
	Width        Inches
	Height       Inches
	MarginTop    Inches
	MarginBottom Inches
	MarginLeft   Inches
	MarginRight  Inches
}

// PrintableWidth is the page width between the side margins.
func (p PageConfig) PrintableWidth() Inches {
	return p.Width - p.MarginLeft - p.MarginRight
}

type FontConfig struct {
	Name   string
	Size   Points
	Color  *Color
	Bold   bool
	Italic bool
}

type HeadingConfig struct {
	FontName    string
	FontSize    Points
	Color       *Color
	Bold        bool
	Italic      bool
	SpaceBefore Points
	SpaceAfter  Points
}

// HeaderFooterConfig describes one header or footer line. The page
// number fields only take effect for footers.
type HeaderFooterConfig struct {
	Text      string // center zone
	LeftText  string
	RightText string

	FontName string
	FontSize Points
	Color    *Color

	IncludePageNumber  bool
	PageNumberPosition Position

	LogoPath     string
	LogoPosition Position
	LogoWidth    Inches // zero means DefaultLogoWidth
}

// DefaultLogoWidth is used when a logo is configured without a width.
const DefaultLogoWidth Inches = 0.5

// HasText reports whether any of the three zones carries text.
func (h HeaderFooterConfig) HasText() bool {
	return h.Text != "" || h.LeftText != "" || h.RightText != ""
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	heading := func(size, before, after Points) HeadingConfig {
		return HeadingConfig{
			FontName:    "Calibri",
			FontSize:    size,
			Bold:        true,
			SpaceBefore: before,
			SpaceAfter:  after,
		}
	}
	h6 := heading(11, 8, 4)
	h6.Italic = true

	bg := Color{R: 245, G: 245, B: 245}
	hf := HeaderFooterConfig{
		FontName:           "Calibri",
		FontSize:           9,
		PageNumberPosition: Right,
		LogoPosition:       Left,
	}
	footer := hf
	footer.IncludePageNumber = true

	return &Config{
		Page: PageConfig{
			Width:        8.5,
			Height:       11,
			MarginTop:    1,
			MarginBottom: 1,
			MarginLeft:   1,
			MarginRight:  1,
		},
		BodyFont: FontConfig{Name: "Calibri", Size: 11},
		Headings: [6]HeadingConfig{
			heading(24, 18, 12),
			heading(20, 16, 10),
			heading(16, 14, 8),
			heading(14, 12, 6),
			heading(12, 10, 4),
			h6,
		},
		CodeFont:       FontConfig{Name: "Courier New", Size: 10},
		CodeBackground: &bg,
		LinkColor:      Color{R: 0, G: 0, B: 255},
		LinkUnderline:  true,
		ListIndent:     0.5,
		Header:         hf,
		Footer:         footer,
	}
}

// Heading returns the record for a heading level. Levels below 1 use
// level 1 and levels above 6 use level 6.
func (c *Config) Heading(level int) HeadingConfig {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return c.Headings[level-1]
}
