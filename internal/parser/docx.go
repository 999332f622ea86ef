package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
)

// OutlineEntry is one body element of a .docx file.
type OutlineEntry struct {
	Kind    string // "heading", "list", "paragraph" or "table"
	Level   int    // heading level, 0 otherwise
	Style   string
	Text    string
	Rows    int
	Columns int
}

// Outline summarizes a .docx body: block sequence plus link and image
// counts. It is used to inspect generated documents.
type Outline struct {
	Entries    []OutlineEntry
	Hyperlinks int
	Images     int
}

// Headings returns the heading entries in document order.
func (o *Outline) Headings() []OutlineEntry {
	var out []OutlineEntry
	for _, e := range o.Entries {
		if e.Kind == "heading" {
			out = append(out, e)
		}
	}
	return out
}

// String renders the outline with headings indented by level.
func (o *Outline) String() string {
	var sb strings.Builder
	for _, e := range o.Entries {
		switch e.Kind {
		case "heading":
			fmt.Fprintf(&sb, "%s%s\n", strings.Repeat("#", e.Level)+" ", e.Text)
		case "table":
			fmt.Fprintf(&sb, "[table %dx%d]\n", e.Rows, e.Columns)
		case "list":
			fmt.Fprintf(&sb, "  - %s\n", e.Text)
		default:
			fmt.Fprintf(&sb, "%s\n", e.Text)
		}
	}
	fmt.Fprintf(&sb, "(%d hyperlinks, %d images)\n", o.Hyperlinks, o.Images)
	return sb.String()
}

// InspectFile reads the outline of a .docx file on disk.
func InspectFile(path string) (*Outline, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()
	return InspectDOCX(f)
}

// InspectDOCX reads a .docx package and returns its outline. Empty
// paragraphs are omitted.
func InspectDOCX(r io.Reader) (*Outline, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := &Outline{}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			text, links, images := docxParagraphText(it)
			out.Hyperlinks += links
			out.Images += images
			if text == "" {
				continue
			}
			style := docxParagraphStyle(it)
			entry := OutlineEntry{Kind: "paragraph", Style: style, Text: text}
			if level := docxHeadingLevel(style); level > 0 {
				entry.Kind = "heading"
				entry.Level = level
			} else if strings.HasPrefix(style, "List") {
				entry.Kind = "list"
			}
			out.Entries = append(out.Entries, entry)
		case *docx.Table:
			entry := OutlineEntry{Kind: "table", Rows: len(it.TableRows)}
			var cells []string
			for _, row := range it.TableRows {
				if len(row.TableCells) > entry.Columns {
					entry.Columns = len(row.TableCells)
				}
				for _, cell := range row.TableCells {
					for _, p := range cell.Paragraphs {
						text, links, images := docxParagraphText(p)
						out.Hyperlinks += links
						out.Images += images
						cells = append(cells, text)
					}
				}
			}
			entry.Text = strings.Join(cells, " | ")
			out.Entries = append(out.Entries, entry)
		}
	}
	return out, nil
}

func docxParagraphStyle(para *docx.Paragraph) string {
	if para.Properties == nil || para.Properties.Style == nil {
		return ""
	}
	return para.Properties.Style.Val
}

// docxHeadingLevel accepts both style ids ("Heading2") and display
// names ("heading 2").
func docxHeadingLevel(style string) int {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if !strings.HasPrefix(s, "heading") || len(s) != len("heading")+1 {
		return 0
	}
	level := int(s[len(s)-1] - '0')
	if level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) (text string, links, images int) {
	var buf strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			images += docxRunText(&buf, c)
		case *docx.Hyperlink:
			links++
			images += docxRunText(&buf, &c.Run)
		}
	}
	return strings.TrimSpace(buf.String()), links, images
}

func docxRunText(buf *strings.Builder, run *docx.Run) (images int) {
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		case *docx.BarterRabbet:
			buf.WriteByte('\n')
		case *docx.Drawing:
			images++
		}
	}
	return images
}
