package docx

import (
	"path"
	"sort"
	"time"
)

const (
	ctDocument  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
	ctStyles    = "application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"
	ctNumbering = "application/vnd.openxmlformats-officedocument.wordprocessingml.numbering+xml"
	ctSettings  = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
	ctHeader    = "application/vnd.openxmlformats-officedocument.wordprocessingml.header+xml"
	ctFooter    = "application/vnd.openxmlformats-officedocument.wordprocessingml.footer+xml"
	ctCore      = "application/vnd.openxmlformats-package.core-properties+xml"
	ctApp       = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
	ctRels      = "application/vnd.openxmlformats-package.relationships+xml"
)

var imageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
}

func contentTypesXML(hasHeader, hasFooter bool, media []mediaFile) ([]byte, error) {
	w := newXMLWriter()
	w.start("Types", "xmlns", "http://schemas.openxmlformats.org/package/2006/content-types")
	w.empty("Default", "Extension", "rels", "ContentType", ctRels)
	w.empty("Default", "Extension", "xml", "ContentType", "application/xml")

	exts := map[string]bool{}
	for _, m := range media {
		exts[path.Ext(m.Name)[1:]] = true
	}
	sorted := make([]string, 0, len(exts))
	for e := range exts {
		sorted = append(sorted, e)
	}
	sort.Strings(sorted)
	for _, e := range sorted {
		ct, ok := imageContentTypes[e]
		if !ok {
			ct = "application/octet-stream"
		}
		w.empty("Default", "Extension", e, "ContentType", ct)
	}

	override := func(part, ct string) {
		w.empty("Override", "PartName", part, "ContentType", ct)
	}
	override("/word/document.xml", ctDocument)
	override("/word/styles.xml", ctStyles)
	override("/word/numbering.xml", ctNumbering)
	override("/word/settings.xml", ctSettings)
	if hasHeader {
		override("/word/header1.xml", ctHeader)
	}
	if hasFooter {
		override("/word/footer1.xml", ctFooter)
	}
	override("/docProps/core.xml", ctCore)
	override("/docProps/app.xml", ctApp)
	w.end("Types")
	return w.bytes()
}

func relsXML(rels []relationship) ([]byte, error) {
	w := newXMLWriter()
	w.start("Relationships", "xmlns", nsPkgRels)
	for _, r := range rels {
		kv := []string{"Id", r.ID, "Type", r.Type, "Target", r.Target}
		if r.External {
			kv = append(kv, "TargetMode", "External")
		}
		w.empty("Relationship", kv...)
	}
	w.end("Relationships")
	return w.bytes()
}

func packageRelsXML() ([]byte, error) {
	return relsXML([]relationship{
		{ID: "rId1", Type: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument", Target: "word/document.xml"},
		{ID: "rId2", Type: "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties", Target: "docProps/core.xml"},
		{ID: "rId3", Type: "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties", Target: "docProps/app.xml"},
	})
}

func coreXML(c CoreProperties) ([]byte, error) {
	w := newXMLWriter()
	w.start("cp:coreProperties",
		"xmlns:cp", "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		"xmlns:dc", "http://purl.org/dc/elements/1.1/",
		"xmlns:dcterms", "http://purl.org/dc/terms/",
		"xmlns:dcmitype", "http://purl.org/dc/dcmitype/",
		"xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance",
	)
	if c.Title != "" {
		w.elem("dc:title", c.Title)
	}
	if c.Creator != "" {
		w.elem("dc:creator", c.Creator)
		w.elem("cp:lastModifiedBy", c.Creator)
	}
	if !c.Created.IsZero() {
		ts := c.Created.UTC().Format(time.RFC3339)
		w.elem("dcterms:created", ts, "xsi:type", "dcterms:W3CDTF")
		w.elem("dcterms:modified", ts, "xsi:type", "dcterms:W3CDTF")
	}
	w.end("cp:coreProperties")
	return w.bytes()
}

func appXML(c CoreProperties) ([]byte, error) {
	w := newXMLWriter()
	w.start("Properties",
		"xmlns", "http://schemas.openxmlformats.org/officeDocument/2006/extended-properties",
		"xmlns:vt", "http://schemas.openxmlformats.org/officeDocument/2006/docPropsVTypes",
	)
	w.elem("Application", "md2docx")
	if c.Company != "" {
		w.elem("Company", c.Company)
	}
	w.end("Properties")
	return w.bytes()
}

func settingsXML() ([]byte, error) {
	w := newXMLWriter()
	w.start("w:settings", "xmlns:w", nsW)
	w.val("w:defaultTabStop", "720")
	w.val("w:characterSpacingControl", "doNotCompress")
	w.start("w:compat")
	w.empty("w:compatSetting", "w:name", "compatibilityMode", "w:uri", "http://schemas.microsoft.com/office/word", "w:val", "15")
	w.end("w:compat")
	w.end("w:settings")
	return w.bytes()
}

func (s *serializer) stylesXML() ([]byte, error) {
	w := s.newPart()
	w.start("w:styles", "xmlns:w", nsW)
	w.start("w:docDefaults")
	w.start("w:rPrDefault")
	w.start("w:rPr")
	w.empty("w:lang", "w:val", "en-US", "w:eastAsia", "en-US", "w:bidi", "ar-SA")
	w.end("w:rPr")
	w.end("w:rPrDefault")
	w.start("w:pPrDefault")
	w.start("w:pPr")
	w.empty("w:spacing", "w:after", "160", "w:line", "259", "w:lineRule", "auto")
	w.end("w:pPr")
	w.end("w:pPrDefault")
	w.end("w:docDefaults")

	for _, st := range s.pkg.Styles {
		kv := []string{"w:type", string(st.Type)}
		if st.Default {
			kv = append(kv, "w:default", "1")
		}
		kv = append(kv, "w:styleId", st.ID)
		w.start("w:style", kv...)
		w.val("w:name", st.Name)
		if st.BasedOn != "" {
			w.val("w:basedOn", st.BasedOn)
		}
		if st.Next != "" {
			w.val("w:next", st.Next)
		}
		w.empty("w:qFormat")
		if pp := st.Para; !isZeroParaProps(pp) {
			w.start("w:pPr")
			w.paraPropsBody(pp)
			w.end("w:pPr")
		}
		if st.Run != (RunProps{}) {
			w.start("w:rPr")
			w.runPropsBody(st.Run)
			w.end("w:rPr")
		}
		if st.Type == TableStyle {
			w.start("w:tblPr")
			if st.Borders {
				w.start("w:tblBorders")
				for _, edge := range []string{"w:top", "w:left", "w:bottom", "w:right", "w:insideH", "w:insideV"} {
					w.border(edge, Border{Style: "single", Size: 4, Color: "auto"})
				}
				w.end("w:tblBorders")
			}
			w.start("w:tblCellMar")
			w.empty("w:left", "w:w", "108", "w:type", "dxa")
			w.empty("w:right", "w:w", "108", "w:type", "dxa")
			w.end("w:tblCellMar")
			w.end("w:tblPr")
		}
		w.end("w:style")
	}
	w.end("w:styles")
	return w.bytes()
}

func numberingXML(n Numbering) ([]byte, error) {
	w := newXMLWriter()
	w.start("w:numbering", "xmlns:w", nsW)
	for _, an := range n.Abstract {
		w.start("w:abstractNum", "w:abstractNumId", itoa(an.ID))
		w.val("w:multiLevelType", "hybridMultilevel")
		for i, lvl := range an.Levels {
			w.start("w:lvl", "w:ilvl", itoa(i))
			start := lvl.Start
			if start <= 0 {
				start = 1
			}
			w.val("w:start", itoa(start))
			w.val("w:numFmt", lvl.Format)
			w.val("w:lvlText", lvl.Text)
			w.val("w:lvlJc", "left")
			w.start("w:pPr")
			w.empty("w:ind", "w:left", itoa(lvl.Indent), "w:hanging", itoa(lvl.Hanging))
			w.end("w:pPr")
			if lvl.Font != "" {
				w.start("w:rPr")
				w.empty("w:rFonts", "w:ascii", lvl.Font, "w:hAnsi", lvl.Font, "w:hint", "default")
				w.end("w:rPr")
			}
			w.end("w:lvl")
		}
		w.end("w:abstractNum")
	}
	for _, in := range n.Instances {
		w.start("w:num", "w:numId", itoa(in.ID))
		w.val("w:abstractNumId", itoa(in.AbstractID))
		if in.Restart > 0 {
			w.start("w:lvlOverride", "w:ilvl", itoa(in.Level))
			w.val("w:startOverride", itoa(in.Restart))
			w.end("w:lvlOverride")
		}
		w.end("w:num")
	}
	w.end("w:numbering")
	return w.bytes()
}
