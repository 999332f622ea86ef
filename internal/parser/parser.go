package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/md2docx/internal/doctree"
)

// Parser converts raw source bytes into a document tree.
type Parser interface {
	Parse(r io.Reader, filename string) ([]doctree.Block, error)
}

// SupportedExtensions lists the source file extensions accepted for
// conversion. Plain text is read as markdown.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// ForFile returns the parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !SupportedExtensions[ext] {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
	return NewMarkdownParser(), nil
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}
