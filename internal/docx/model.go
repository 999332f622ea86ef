// Package docx models a WordprocessingML package and serializes it to
// the OOXML zip container.
//
// A Package is built by a single producer and then handed to WriteTo,
// Bytes or Save. The serializer only reads the model; relationship ids,
// media names and drawing ids are assigned during serialization in
// first-use order, so the same Package always yields the same bytes.
package docx

import "time"

// Package is the in-memory document.
type Package struct {
	Core      CoreProperties
	Section   Section
	Styles    []Style
	Numbering Numbering

	Header *HeaderFooter
	Footer *HeaderFooter

	Body []Block
}

// CoreProperties are the document metadata parts.
type CoreProperties struct {
	Title   string
	Creator string
	Company string
	Created time.Time // zero omits the timestamp
}

// Section holds page geometry in twips.
type Section struct {
	PageWidth    int
	PageHeight   int
	MarginTop    int
	MarginBottom int
	MarginLeft   int
	MarginRight  int
	HeaderOffset int
	FooterOffset int
}

// ContentWidth is the printable width in twips.
func (s Section) ContentWidth() int {
	return s.PageWidth - s.MarginLeft - s.MarginRight
}

// HeaderFooter is the content of a header or footer part.
type HeaderFooter struct {
	Paragraphs []*Paragraph
}

// Block is a body-level element: *Paragraph or *Table.
type Block interface {
	docxBlock()
}

// Paragraph is a w:p element.
type Paragraph struct {
	Props   ParaProps
	Content []Inline
}

// Table is a w:tbl element. Every row carries exactly Columns cells.
type Table struct {
	Style   string
	Columns int
	Width   int // total width in twips, split evenly across columns
	Rows    []*TableRow
}

type TableRow struct {
	Header bool // repeat as header row
	Cells  []*TableCell
}

type TableCell struct {
	Paragraphs []*Paragraph
}

func (*Paragraph) docxBlock() {}
func (*Table) docxBlock()     {}

// Inline is paragraph content: *Run, *Hyperlink or *Field.
type Inline interface {
	docxInline()
}

// Run is a w:r element. Text may contain '\t' and '\n', which are
// written as tab and line break elements. A non-nil Image makes the run
// a picture and Text is ignored.
type Run struct {
	Props RunProps
	Text  string
	Image *Image
}

// Hyperlink points at an external URL.
type Hyperlink struct {
	URL  string
	Runs []*Run
}

// Field is a simple field such as PAGE, realized as fldChar runs so the
// consumer computes its value at render time.
type Field struct {
	Instr       string
	Placeholder string
	Props       RunProps
}

func (*Run) docxInline()       {}
func (*Hyperlink) docxInline() {}
func (*Field) docxInline()     {}

// Image is a raster picture placed inline. Width and Height are in EMU.
type Image struct {
	Data   []byte
	Ext    string // file extension without dot, e.g. "png"
	Width  int64
	Height int64
	Name   string
}

// Alignment is a paragraph justification value.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// TabStop is a custom tab position in twips.
type TabStop struct {
	Kind string // "left", "center" or "right"
	Pos  int
}

// NumRef attaches a paragraph to a numbering instance.
type NumRef struct {
	NumID int
	Level int
}

// Border is a single paragraph border edge.
type Border struct {
	Style string // e.g. "single"
	Size  int    // eighths of a point
	Space int
	Color string
}

// ParaProps are paragraph properties. Pointer fields distinguish unset
// from zero.
type ParaProps struct {
	Style        string
	KeepNext     bool
	Num          *NumRef
	BorderTop    *Border
	BorderBottom *Border
	Shading      string
	Tabs         []TabStop
	SpaceBefore  *int
	SpaceAfter   *int
	IndentLeft   int
	IndentRight  int
	Hanging      int
	Align        Alignment
	OutlineLevel *int
}

// RunProps are run properties. Size is in half-points; zero leaves the
// size to the style.
type RunProps struct {
	Style     string
	Font      string
	Bold      bool
	Italic    bool
	Strike    bool
	Color     string
	Size      int
	Underline bool
	Shading   string
}

// StyleType is the kind of a style definition.
type StyleType string

const (
	ParagraphStyle StyleType = "paragraph"
	CharacterStyle StyleType = "character"
	TableStyle     StyleType = "table"
)

// Style is an entry in styles.xml.
type Style struct {
	ID      string
	Name    string
	Type    StyleType
	Default bool
	BasedOn string
	Next    string
	Para    ParaProps
	Run     RunProps
	Borders bool // table styles: single-line grid
}

// Numbering holds abstract list definitions and the instances that
// paragraphs reference.
type Numbering struct {
	Abstract  []AbstractNum
	Instances []NumInstance
}

// AbstractNum is a multi-level list definition.
type AbstractNum struct {
	ID     int
	Levels []NumLevel
}

type NumLevel struct {
	Format  string // "bullet" or "decimal"
	Text    string // level text, e.g. "%1." or a bullet glyph
	Start   int
	Indent  int
	Hanging int
	Font    string // bullet glyph font, optional
}

// NumInstance binds a w:num id to an abstract definition. A positive
// Restart overrides the start value of Level.
type NumInstance struct {
	ID         int
	AbstractID int
	Level      int
	Restart    int
}

// AddNumInstance appends an instance of abstractID and returns its id.
func (n *Numbering) AddNumInstance(abstractID, level, restart int) int {
	id := len(n.Instances) + 1
	n.Instances = append(n.Instances, NumInstance{ID: id, AbstractID: abstractID, Level: level, Restart: restart})
	return id
}

// Text returns the concatenated run text of a paragraph, hyperlinks
// included and field placeholders excluded.
func (p *Paragraph) Text() string {
	var b []byte
	for _, in := range p.Content {
		switch n := in.(type) {
		case *Run:
			if n.Image == nil {
				b = append(b, n.Text...)
			}
		case *Hyperlink:
			for _, r := range n.Runs {
				b = append(b, r.Text...)
			}
		}
	}
	return string(b)
}
