// Package convert runs one markdown to DOCX conversion: size check,
// parse, emit.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/dgallion1/md2docx/internal/branding"
	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/dgallion1/md2docx/internal/docx"
	"github.com/dgallion1/md2docx/internal/emitter"
	"github.com/dgallion1/md2docx/internal/images"
	"github.com/dgallion1/md2docx/internal/parser"
)

// DefaultMaxBytes is the input ceiling when none is configured.
const DefaultMaxBytes int64 = 5 << 20

var (
	ErrInputTooLarge = errors.New("markdown input too large")
	ErrInvalidInput  = errors.New("markdown input is not valid UTF-8")
)

// Service converts markdown documents. It holds no per-conversion state
// and is safe for concurrent use.
type Service struct {
	parser   *parser.MarkdownParser
	images   images.Fetcher
	log      *slog.Logger
	maxBytes int64
}

// NewService creates a conversion service. fetcher resolves header and
// footer logos and may be nil. maxBytes <= 0 selects DefaultMaxBytes.
func NewService(fetcher images.Fetcher, maxBytes int64, log *slog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{
		parser:   parser.NewMarkdownParser(),
		images:   fetcher,
		log:      log,
		maxBytes: maxBytes,
	}
}

// MaxBytes returns the input ceiling.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Convert builds a package from markdown. A nil cfg uses the built-in
// defaults. Oversized input is rejected before any parsing.
func (s *Service) Convert(ctx context.Context, markdown []byte, cfg *branding.Config) (*docx.Package, error) {
	blocks, err := s.ParseOnly(markdown)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pkg := emitter.New(cfg, s.images, s.log).Emit(ctx, blocks)
	s.log.Debug("converted markdown", "bytes", len(markdown), "blocks", len(blocks), "body_elements", len(pkg.Body))
	return pkg, nil
}

// ParseOnly applies the input checks and returns the parsed tree.
func (s *Service) ParseOnly(markdown []byte) ([]doctree.Block, error) {
	if err := s.check(markdown); err != nil {
		return nil, err
	}
	return s.parser.ParseBytes(markdown), nil
}

func (s *Service) check(markdown []byte) error {
	if n := int64(len(markdown)); n > s.maxBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInputTooLarge, n, s.maxBytes)
	}
	if !utf8.Valid(markdown) {
		return ErrInvalidInput
	}
	return nil
}
