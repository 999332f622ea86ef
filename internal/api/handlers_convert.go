package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/md2docx/internal/branding"
	"github.com/dgallion1/md2docx/internal/convert"
	"github.com/dgallion1/md2docx/internal/doctree"
	"github.com/dgallion1/md2docx/internal/parser"
	"github.com/dgallion1/md2docx/internal/pipeline"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	defaultFilename = "document.docx"

	// formOverhead is allowed on top of the markdown ceiling for JSON
	// envelopes, branding payloads and multipart framing.
	formOverhead = 1 << 20
)

// convertRequest is the JSON body of /convert and /api/jobs.
type convertRequest struct {
	Markdown string          `json:"markdown"`
	Branding json.RawMessage `json:"branding,omitempty"`
	Filename string          `json:"filename,omitempty"`
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		formError(w, err)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}
	markdown := r.FormValue("markdown")
	if markdown == "" {
		jsonError(w, "markdown is required", http.StatusBadRequest)
		return
	}

	blocks, err := s.conv.ParseOnly([]byte(markdown))
	if err != nil {
		s.writeConvertError(w, r, err)
		return
	}
	nodes := doctree.Nodes(blocks)
	writeJSON(w, http.StatusOK, map[string]any{
		"ast":        nodes,
		"node_count": doctree.Count(nodes),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeConvertRequest(w, r)
	if !ok {
		return
	}
	cfg, err := resolveBranding(req.Branding)
	if err != nil {
		s.writeConvertError(w, r, err)
		return
	}
	data, err := s.orchestrator.Convert(r.Context(), pipeline.Request{
		Markdown: []byte(req.Markdown),
		Config:   cfg,
		Filename: outputFilename(req.Filename),
	})
	if err != nil {
		s.writeConvertError(w, r, err)
		return
	}
	writeDocument(w, data, outputFilename(req.Filename))
}

func (s *Server) handleConvertFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(name) {
		jsonError(w, fmt.Sprintf("unsupported file type: %q", filepath.Ext(name)), http.StatusBadRequest)
		return
	}

	// Read one byte past the ceiling so the service reports the overflow.
	data, err := io.ReadAll(io.LimitReader(file, s.orchestrator.MaxMarkdownBytes()+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	cfg, err := resolveBranding(json.RawMessage(r.FormValue("branding")))
	if err != nil {
		s.writeConvertError(w, r, err)
		return
	}

	out := outputFilename(strings.TrimSuffix(name, filepath.Ext(name)))
	doc, err := s.orchestrator.Convert(r.Context(), pipeline.Request{Markdown: data, Config: cfg, Filename: out})
	if err != nil {
		s.writeConvertError(w, r, err)
		return
	}
	writeDocument(w, doc, out)
}

func (s *Server) handleBrandingSample(w http.ResponseWriter, r *http.Request) {
	data, err := branding.SampleJSON()
	if err != nil {
		jsonError(w, "failed to build sample", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

// decodeConvertRequest reads a JSON conversion body. It writes the
// error response itself and reports whether decoding succeeded.
func (s *Server) decodeConvertRequest(w http.ResponseWriter, r *http.Request) (convertRequest, bool) {
	var req convertRequest
	r.Body = http.MaxBytesReader(w, r.Body, s.bodyLimit())
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			formError(w, err)
			return req, false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return req, false
	}
	if req.Markdown == "" {
		jsonError(w, "markdown is required", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func (s *Server) bodyLimit() int64 {
	return s.orchestrator.MaxMarkdownBytes() + formOverhead
}

// resolveBranding merges a JSON override document over the defaults. An
// empty or null payload yields the defaults.
func resolveBranding(raw json.RawMessage) (*branding.Config, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return branding.Defaults(), nil
	}
	o, err := branding.Decode(raw)
	if err != nil {
		return nil, &badRequest{err}
	}
	return branding.Resolve(o)
}

// badRequest marks malformed client input.
type badRequest struct{ err error }

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// writeConvertError maps conversion errors onto status codes. Deadline
// errors of the request itself are left to the timeout middleware.
func (s *Server) writeConvertError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve  *branding.ValidationError
		bad *badRequest
	)
	switch {
	case r.Context().Err() != nil:
		return
	case errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "conversion timed out", http.StatusGatewayTimeout)
	case errors.Is(err, convert.ErrInputTooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, convert.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &ve):
		jsonError(w, "invalid branding: "+ve.Error(), http.StatusBadRequest)
	case errors.As(err, &bad):
		jsonError(w, "invalid branding: "+bad.Error(), http.StatusBadRequest)
	case errors.Is(err, pipeline.ErrQueueFull), errors.Is(err, pipeline.ErrStopped):
		w.Header().Set("Retry-After", "5")
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error("conversion failed", "request_id", RequestIDFrom(r.Context()), "error", err)
		jsonError(w, "conversion failed", http.StatusInternalServerError)
	}
}

// formError reports a failed form parse, as 413 when the body limit
// was hit.
func formError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", maxErr.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
}

func writeDocument(w http.ResponseWriter, data []byte, filename string) {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": defaultFilename})
	}
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/\x00-\x1f\x7f"]+`)

// sanitizeFilename replaces path separators, control characters and
// quotes, and falls back to a default for empty names.
func sanitizeFilename(name string) string {
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" || strings.Trim(name, "_") == "" {
		return defaultFilename
	}
	return name
}

// outputFilename sanitizes a suggested name and ensures a .docx suffix.
func outputFilename(name string) string {
	name = sanitizeFilename(name)
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		name += ".docx"
	}
	return name
}
