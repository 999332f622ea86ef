package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/md2docx/internal/docx"
)

func textPara(style, text string) *docx.Paragraph {
	return &docx.Paragraph{Props: docx.ParaProps{Style: style}, Content: []docx.Inline{&docx.Run{Text: text}}}
}

func TestInspectDOCX_RoundTrip(t *testing.T) {
	pkg := &docx.Package{
		Section: docx.Section{PageWidth: 12240, PageHeight: 15840, MarginLeft: 1440, MarginRight: 1440},
		Body: []docx.Block{
			textPara("Heading1", "Title"),
			textPara("", "Intro"),
			textPara("Heading2", "Section"),
			textPara("ListBullet", "item"),
			&docx.Paragraph{Content: []docx.Inline{
				&docx.Run{Text: "see "},
				&docx.Hyperlink{URL: "https://example.com", Runs: []*docx.Run{{Text: "site"}}},
			}},
			textPara("", ""),
			&docx.Table{Columns: 2, Width: 9360, Rows: []*docx.TableRow{
				{Header: true, Cells: []*docx.TableCell{
					{Paragraphs: []*docx.Paragraph{textPara("", "A")}},
					{Paragraphs: []*docx.Paragraph{textPara("", "B")}},
				}},
				{Cells: []*docx.TableCell{
					{Paragraphs: []*docx.Paragraph{textPara("", "1")}},
				}},
			}},
		},
	}
	data, err := pkg.Bytes()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	outline, err := InspectDOCX(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if len(outline.Entries) != 6 {
		t.Fatalf("expected 6 entries, got %d: %+v", len(outline.Entries), outline.Entries)
	}

	heads := outline.Headings()
	if len(heads) != 2 || heads[0].Text != "Title" || heads[1].Level != 2 {
		t.Errorf("unexpected headings: %+v", heads)
	}
	if outline.Entries[3].Kind != "list" {
		t.Errorf("expected list entry, got %q", outline.Entries[3].Kind)
	}
	if outline.Entries[4].Text != "see site" {
		t.Errorf("expected hyperlink text to be included, got %q", outline.Entries[4].Text)
	}
	if outline.Hyperlinks != 1 {
		t.Errorf("expected 1 hyperlink, got %d", outline.Hyperlinks)
	}
	tbl := outline.Entries[5]
	if tbl.Kind != "table" || tbl.Rows != 2 || tbl.Columns != 2 {
		t.Errorf("expected 2x2 table, got %+v", tbl)
	}
	if !strings.Contains(outline.String(), "# Title") {
		t.Errorf("expected rendered outline to contain %q, got:\n%s", "# Title", outline.String())
	}
}

func TestInspectDOCX_NotAZip(t *testing.T) {
	if _, err := InspectDOCX(strings.NewReader("plain text")); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading1", 1},
		{"heading 3", 3},
		{"Heading6", 6},
		{"Heading7", 0},
		{"Heading10", 0},
		{"ListBullet", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := docxHeadingLevel(tt.style); got != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.style, tt.want, got)
		}
	}
}
