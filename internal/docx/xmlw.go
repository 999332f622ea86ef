package docx

import (
	"bytes"
	"encoding/xml"
	"strconv"
)

const (
	nsW       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsR       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsWP      = "http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"
	nsA       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsPic     = "http://schemas.openxmlformats.org/drawingml/2006/picture"
	nsPkgRels = "http://schemas.openxmlformats.org/package/2006/relationships"
)

// xmlWriter emits prefixed element names through an xml.Encoder. The
// first error sticks and later calls are no-ops.
type xmlWriter struct {
	buf bytes.Buffer
	enc *xml.Encoder
	err error
}

func newXMLWriter() *xmlWriter {
	x := &xmlWriter{}
	x.enc = xml.NewEncoder(&x.buf)
	x.token(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8" standalone="yes"`)})
	x.raw("\n")
	return x
}

func (x *xmlWriter) token(t xml.Token) {
	if x.err != nil {
		return
	}
	x.err = x.enc.EncodeToken(t)
}

// raw writes pre-escaped bytes between tokens.
func (x *xmlWriter) raw(s string) {
	if x.err != nil {
		return
	}
	if x.err = x.enc.Flush(); x.err == nil {
		x.buf.WriteString(s)
	}
}

func attrs(kv []string) []xml.Attr {
	out := make([]xml.Attr, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, xml.Attr{Name: xml.Name{Local: kv[i]}, Value: kv[i+1]})
	}
	return out
}

// start opens an element; kv are attribute name/value pairs.
func (x *xmlWriter) start(name string, kv ...string) {
	x.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs(kv)})
}

func (x *xmlWriter) end(name string) {
	x.token(xml.EndElement{Name: xml.Name{Local: name}})
}

// empty writes an element with attributes and no content.
func (x *xmlWriter) empty(name string, kv ...string) {
	x.start(name, kv...)
	x.end(name)
}

// elem writes an element holding escaped character data.
func (x *xmlWriter) elem(name, text string, kv ...string) {
	x.start(name, kv...)
	x.text(text)
	x.end(name)
}

func (x *xmlWriter) text(s string) {
	if s != "" {
		x.token(xml.CharData(s))
	}
}

// val writes the common <name w:val="v"/> shape.
func (x *xmlWriter) val(name, v string) {
	x.empty(name, "w:val", v)
}

func (x *xmlWriter) bytes() ([]byte, error) {
	if x.err == nil {
		x.err = x.enc.Flush()
	}
	if x.err != nil {
		return nil, x.err
	}
	return x.buf.Bytes(), nil
}

func itoa(n int) string { return strconv.Itoa(n) }

func i64toa(n int64) string { return strconv.FormatInt(n, 10) }
