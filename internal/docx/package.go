package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	pathpkg "path"
	"path/filepath"
	"time"
)

// ErrSerialization wraps every failure to produce or write a package.
var ErrSerialization = errors.New("docx serialization failed")

// zipEpoch is stamped on every entry so output does not depend on the
// wall clock.
var zipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

type part struct {
	name string
	data []byte
}

// Bytes serializes the package.
func (p *Package) Bytes() ([]byte, error) {
	parts, err := p.parts()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, pt := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     pt.name,
			Method:   zip.Deflate,
			Modified: zipEpoch,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: create %s: %v", ErrSerialization, pt.name, err)
		}
		if _, err := fw.Write(pt.data); err != nil {
			return nil, fmt.Errorf("%w: write %s: %v", ErrSerialization, pt.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: close zip: %v", ErrSerialization, err)
	}
	return buf.Bytes(), nil
}

// WriteTo serializes the package fully in memory before writing any
// byte to w, so a serialization error never reaches the sink.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	data, err := p.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return int64(n), nil
}

// Save writes the package to path through a temporary file in the same
// directory that is renamed into place only after a complete write.
func (p *Package) Save(path string) error {
	data, err := p.Bytes()
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".md2docx-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrSerialization, err)
	}
	tmpPath := tmp.Name()
	fail := func(op string, err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %s: %v", ErrSerialization, op, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fail("write", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close: %v", ErrSerialization, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", ErrSerialization, err)
	}
	return nil
}

// parts renders every part in a fixed order.
func (p *Package) parts() ([]part, error) {
	s := &serializer{pkg: p}

	doc, err := s.writeDocument()
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	docXML, err := doc.bytes()
	if err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}

	var out []part
	addRendered := func(name string, w *partWriter) error {
		data, err := w.bytes()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, part{name, data})
		if len(w.rels) > 0 {
			rels, err := relsXML(w.rels)
			if err != nil {
				return fmt.Errorf("%s rels: %w", name, err)
			}
			dir, file := pathpkg.Split(name)
			out = append(out, part{dir + "_rels/" + file + ".rels", rels})
		}
		return nil
	}

	var headerPart, footerPart *partWriter
	if p.Header != nil {
		if headerPart, err = s.writeHeaderFooter("w:hdr", p.Header); err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
	}
	if p.Footer != nil {
		if footerPart, err = s.writeHeaderFooter("w:ftr", p.Footer); err != nil {
			return nil, fmt.Errorf("footer: %w", err)
		}
	}

	ct, err := contentTypesXML(p.Header != nil, p.Footer != nil, s.media)
	if err != nil {
		return nil, fmt.Errorf("content types: %w", err)
	}
	out = append(out, part{"[Content_Types].xml", ct})

	pkgRels, err := packageRelsXML()
	if err != nil {
		return nil, fmt.Errorf("package rels: %w", err)
	}
	out = append(out, part{"_rels/.rels", pkgRels})

	core, err := coreXML(p.Core)
	if err != nil {
		return nil, fmt.Errorf("core properties: %w", err)
	}
	out = append(out, part{"docProps/core.xml", core})
	app, err := appXML(p.Core)
	if err != nil {
		return nil, fmt.Errorf("app properties: %w", err)
	}
	out = append(out, part{"docProps/app.xml", app})

	out = append(out, part{"word/document.xml", docXML})
	docRels, err := relsXML(doc.rels)
	if err != nil {
		return nil, fmt.Errorf("document rels: %w", err)
	}
	out = append(out, part{"word/_rels/document.xml.rels", docRels})

	styles, err := s.stylesXML()
	if err != nil {
		return nil, fmt.Errorf("styles: %w", err)
	}
	out = append(out, part{"word/styles.xml", styles})
	numbering, err := numberingXML(p.Numbering)
	if err != nil {
		return nil, fmt.Errorf("numbering: %w", err)
	}
	out = append(out, part{"word/numbering.xml", numbering})
	settings, err := settingsXML()
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}
	out = append(out, part{"word/settings.xml", settings})

	if headerPart != nil {
		if err := addRendered("word/header1.xml", headerPart); err != nil {
			return nil, err
		}
	}
	if footerPart != nil {
		if err := addRendered("word/footer1.xml", footerPart); err != nil {
			return nil, err
		}
	}
	for _, m := range s.media {
		out = append(out, part{m.Name, m.Data})
	}
	return out, nil
}
