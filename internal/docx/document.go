package docx

import (
	"fmt"
	"strings"
)

const (
	relStyles    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
	relNumbering = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/numbering"
	relSettings  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	relHeader    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/header"
	relFooter    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/footer"
	relHyperlink = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
	relImage     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
)

type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

type mediaFile struct {
	Name string // path inside the package, e.g. word/media/image1.png
	Data []byte
}

// serializer carries the state shared by all parts of one serialization:
// media numbering and drawing ids are package-wide.
type serializer struct {
	pkg       *Package
	media     []mediaFile
	drawingID int
}

// partWriter writes one XML part and collects the relationships it uses.
type partWriter struct {
	*xmlWriter
	s     *serializer
	rels  []relationship
	links map[string]string
}

func (s *serializer) newPart() *partWriter {
	return &partWriter{xmlWriter: newXMLWriter(), s: s, links: make(map[string]string)}
}

func (w *partWriter) addRel(typ, target string, external bool) string {
	id := fmt.Sprintf("rId%d", len(w.rels)+1)
	w.rels = append(w.rels, relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

func (w *partWriter) hyperlinkRel(url string) string {
	if id, ok := w.links[url]; ok {
		return id
	}
	id := w.addRel(relHyperlink, url, true)
	w.links[url] = id
	return id
}

func (w *partWriter) imageRel(img *Image) string {
	ext := img.Ext
	if ext == "" {
		ext = "png"
	}
	name := fmt.Sprintf("image%d.%s", len(w.s.media)+1, ext)
	w.s.media = append(w.s.media, mediaFile{Name: "word/media/" + name, Data: img.Data})
	return w.addRel(relImage, "media/"+name, false)
}

func openRoot(w *partWriter, name string) {
	w.start(name,
		"xmlns:w", nsW,
		"xmlns:r", nsR,
		"xmlns:wp", nsWP,
		"xmlns:a", nsA,
		"xmlns:pic", nsPic,
	)
}

// writeDocument renders word/document.xml. Fixed relationships come
// first, then header/footer, then hyperlinks and images in body order.
func (s *serializer) writeDocument() (*partWriter, error) {
	w := s.newPart()
	w.addRel(relStyles, "styles.xml", false)
	w.addRel(relNumbering, "numbering.xml", false)
	w.addRel(relSettings, "settings.xml", false)
	var headerID, footerID string
	if s.pkg.Header != nil {
		headerID = w.addRel(relHeader, "header1.xml", false)
	}
	if s.pkg.Footer != nil {
		footerID = w.addRel(relFooter, "footer1.xml", false)
	}

	openRoot(w, "w:document")
	w.start("w:body")
	for _, b := range s.pkg.Body {
		switch n := b.(type) {
		case *Paragraph:
			w.paragraph(n)
		case *Table:
			w.table(n)
		}
	}
	w.sectPr(s.pkg.Section, headerID, footerID)
	w.end("w:body")
	w.end("w:document")
	return w, w.err
}

func (s *serializer) writeHeaderFooter(root string, hf *HeaderFooter) (*partWriter, error) {
	w := s.newPart()
	openRoot(w, root)
	if len(hf.Paragraphs) == 0 {
		w.paragraph(&Paragraph{})
	}
	for _, p := range hf.Paragraphs {
		w.paragraph(p)
	}
	w.end(root)
	return w, w.err
}

func (w *partWriter) sectPr(sec Section, headerID, footerID string) {
	w.start("w:sectPr")
	if headerID != "" {
		w.empty("w:headerReference", "w:type", "default", "r:id", headerID)
	}
	if footerID != "" {
		w.empty("w:footerReference", "w:type", "default", "r:id", footerID)
	}
	w.empty("w:pgSz", "w:w", itoa(sec.PageWidth), "w:h", itoa(sec.PageHeight))
	w.empty("w:pgMar",
		"w:top", itoa(sec.MarginTop),
		"w:right", itoa(sec.MarginRight),
		"w:bottom", itoa(sec.MarginBottom),
		"w:left", itoa(sec.MarginLeft),
		"w:header", itoa(sec.HeaderOffset),
		"w:footer", itoa(sec.FooterOffset),
		"w:gutter", "0",
	)
	w.end("w:sectPr")
}

func (w *partWriter) paragraph(p *Paragraph) {
	w.start("w:p")
	w.paraProps(p.Props)
	for _, in := range p.Content {
		switch n := in.(type) {
		case *Run:
			w.run(n)
		case *Hyperlink:
			w.start("w:hyperlink", "r:id", w.hyperlinkRel(n.URL), "w:history", "1")
			for _, r := range n.Runs {
				w.run(r)
			}
			w.end("w:hyperlink")
		case *Field:
			w.field(n)
		}
	}
	w.end("w:p")
}

// paraProps writes w:pPr in schema order. Nothing is written when the
// properties are all unset.
func (w *partWriter) paraProps(pp ParaProps) {
	if isZeroParaProps(pp) {
		return
	}
	w.start("w:pPr")
	w.paraPropsBody(pp)
	w.end("w:pPr")
}

func isZeroParaProps(pp ParaProps) bool {
	return pp.Style == "" && !pp.KeepNext && pp.Num == nil && pp.BorderTop == nil &&
		pp.BorderBottom == nil && pp.Shading == "" && len(pp.Tabs) == 0 &&
		pp.SpaceBefore == nil && pp.SpaceAfter == nil && pp.IndentLeft == 0 &&
		pp.IndentRight == 0 && pp.Hanging == 0 && pp.Align == "" && pp.OutlineLevel == nil
}

func (w *partWriter) paraPropsBody(pp ParaProps) {
	if pp.Style != "" {
		w.val("w:pStyle", pp.Style)
	}
	if pp.KeepNext {
		w.empty("w:keepNext")
	}
	if pp.Num != nil {
		w.start("w:numPr")
		w.val("w:ilvl", itoa(pp.Num.Level))
		w.val("w:numId", itoa(pp.Num.NumID))
		w.end("w:numPr")
	}
	if pp.BorderTop != nil || pp.BorderBottom != nil {
		w.start("w:pBdr")
		if pp.BorderTop != nil {
			w.border("w:top", *pp.BorderTop)
		}
		if pp.BorderBottom != nil {
			w.border("w:bottom", *pp.BorderBottom)
		}
		w.end("w:pBdr")
	}
	if pp.Shading != "" {
		w.empty("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", pp.Shading)
	}
	if len(pp.Tabs) > 0 {
		w.start("w:tabs")
		for _, t := range pp.Tabs {
			w.empty("w:tab", "w:val", t.Kind, "w:pos", itoa(t.Pos))
		}
		w.end("w:tabs")
	}
	if pp.SpaceBefore != nil || pp.SpaceAfter != nil {
		var kv []string
		if pp.SpaceBefore != nil {
			kv = append(kv, "w:before", itoa(*pp.SpaceBefore))
		}
		if pp.SpaceAfter != nil {
			kv = append(kv, "w:after", itoa(*pp.SpaceAfter))
		}
		w.empty("w:spacing", kv...)
	}
	if pp.IndentLeft != 0 || pp.IndentRight != 0 || pp.Hanging != 0 {
		kv := []string{"w:left", itoa(pp.IndentLeft)}
		if pp.IndentRight != 0 {
			kv = append(kv, "w:right", itoa(pp.IndentRight))
		}
		if pp.Hanging != 0 {
			kv = append(kv, "w:hanging", itoa(pp.Hanging))
		}
		w.empty("w:ind", kv...)
	}
	if pp.Align != "" {
		w.val("w:jc", string(pp.Align))
	}
	if pp.OutlineLevel != nil {
		w.val("w:outlineLvl", itoa(*pp.OutlineLevel))
	}
}

func (w *partWriter) border(name string, b Border) {
	color := b.Color
	if color == "" {
		color = "auto"
	}
	w.empty(name, "w:val", b.Style, "w:sz", itoa(b.Size), "w:space", itoa(b.Space), "w:color", color)
}

func (w *partWriter) runProps(rp RunProps) {
	if rp == (RunProps{}) {
		return
	}
	w.start("w:rPr")
	w.runPropsBody(rp)
	w.end("w:rPr")
}

func (w *partWriter) runPropsBody(rp RunProps) {
	if rp.Style != "" {
		w.val("w:rStyle", rp.Style)
	}
	if rp.Font != "" {
		w.empty("w:rFonts", "w:ascii", rp.Font, "w:hAnsi", rp.Font, "w:eastAsia", rp.Font, "w:cs", rp.Font)
	}
	if rp.Bold {
		w.empty("w:b")
	}
	if rp.Italic {
		w.empty("w:i")
	}
	if rp.Strike {
		w.empty("w:strike")
	}
	if rp.Color != "" {
		w.val("w:color", rp.Color)
	}
	if rp.Size > 0 {
		w.val("w:sz", itoa(rp.Size))
		w.val("w:szCs", itoa(rp.Size))
	}
	if rp.Underline {
		w.val("w:u", "single")
	}
	if rp.Shading != "" {
		w.empty("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", rp.Shading)
	}
}

func (w *partWriter) run(r *Run) {
	w.start("w:r")
	w.runProps(r.Props)
	if r.Image != nil {
		w.drawing(r.Image)
	} else {
		w.runText(r.Text)
	}
	w.end("w:r")
}

// runText splits text on tabs and newlines.
func (w *partWriter) runText(s string) {
	for s != "" {
		i := strings.IndexAny(s, "\t\n")
		if i < 0 {
			w.elem("w:t", s, "xml:space", "preserve")
			return
		}
		if i > 0 {
			w.elem("w:t", s[:i], "xml:space", "preserve")
		}
		if s[i] == '\t' {
			w.empty("w:tab")
		} else {
			w.empty("w:br")
		}
		s = s[i+1:]
	}
}

func (w *partWriter) field(f *Field) {
	fld := func(kind string) {
		w.start("w:r")
		w.runProps(f.Props)
		w.empty("w:fldChar", "w:fldCharType", kind)
		w.end("w:r")
	}
	fld("begin")
	w.start("w:r")
	w.runProps(f.Props)
	w.elem("w:instrText", " "+f.Instr+" ", "xml:space", "preserve")
	w.end("w:r")
	fld("separate")
	w.start("w:r")
	w.runProps(f.Props)
	w.runText(f.Placeholder)
	w.end("w:r")
	fld("end")
}

func (w *partWriter) drawing(img *Image) {
	rid := w.imageRel(img)
	w.s.drawingID++
	id := itoa(w.s.drawingID)
	name := img.Name
	if name == "" {
		name = "Picture " + id
	}
	cx, cy := i64toa(img.Width), i64toa(img.Height)

	w.start("w:drawing")
	w.start("wp:inline", "distT", "0", "distB", "0", "distL", "0", "distR", "0")
	w.empty("wp:extent", "cx", cx, "cy", cy)
	w.empty("wp:docPr", "id", id, "name", name)
	w.start("wp:cNvGraphicFramePr")
	w.empty("a:graphicFrameLocks", "noChangeAspect", "1")
	w.end("wp:cNvGraphicFramePr")
	w.start("a:graphic")
	w.start("a:graphicData", "uri", nsPic)
	w.start("pic:pic")
	w.start("pic:nvPicPr")
	w.empty("pic:cNvPr", "id", "0", "name", name)
	w.empty("pic:cNvPicPr")
	w.end("pic:nvPicPr")
	w.start("pic:blipFill")
	w.empty("a:blip", "r:embed", rid)
	w.start("a:stretch")
	w.empty("a:fillRect")
	w.end("a:stretch")
	w.end("pic:blipFill")
	w.start("pic:spPr")
	w.start("a:xfrm")
	w.empty("a:off", "x", "0", "y", "0")
	w.empty("a:ext", "cx", cx, "cy", cy)
	w.end("a:xfrm")
	w.start("a:prstGeom", "prst", "rect")
	w.empty("a:avLst")
	w.end("a:prstGeom")
	w.end("pic:spPr")
	w.end("pic:pic")
	w.end("a:graphicData")
	w.end("a:graphic")
	w.end("wp:inline")
	w.end("w:drawing")
}

func (w *partWriter) table(t *Table) {
	cols := t.Columns
	if cols <= 0 {
		return
	}
	colW := t.Width / cols

	w.start("w:tbl")
	w.start("w:tblPr")
	if t.Style != "" {
		w.val("w:tblStyle", t.Style)
	}
	w.empty("w:tblW", "w:w", "0", "w:type", "auto")
	w.empty("w:tblLook", "w:val", "04A0", "w:firstRow", "1", "w:lastRow", "0", "w:firstColumn", "1", "w:lastColumn", "0", "w:noHBand", "0", "w:noVBand", "1")
	w.end("w:tblPr")

	w.start("w:tblGrid")
	for range cols {
		w.empty("w:gridCol", "w:w", itoa(colW))
	}
	w.end("w:tblGrid")

	for _, row := range t.Rows {
		w.start("w:tr")
		if row.Header {
			w.start("w:trPr")
			w.empty("w:tblHeader")
			w.end("w:trPr")
		}
		for i := range cols {
			w.start("w:tc")
			w.start("w:tcPr")
			w.empty("w:tcW", "w:w", itoa(colW), "w:type", "dxa")
			w.end("w:tcPr")
			var paras []*Paragraph
			if i < len(row.Cells) && row.Cells[i] != nil {
				paras = row.Cells[i].Paragraphs
			}
			if len(paras) == 0 {
				paras = []*Paragraph{{}}
			}
			for _, p := range paras {
				w.paragraph(p)
			}
			w.end("w:tc")
		}
		w.end("w:tr")
	}
	w.end("w:tbl")
}
