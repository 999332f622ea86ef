package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/md2docx/internal/config"
	"github.com/dgallion1/md2docx/internal/convert"
	"github.com/dgallion1/md2docx/internal/parser"
	"github.com/dgallion1/md2docx/internal/pipeline"
)

func testConfig() config.Config {
	return config.Config{
		Port:             "8000",
		MaxMarkdownBytes: 1 << 20,
		RequestTimeout:   5 * time.Second,
		RateLimit:        1000,
		RateWindow:       time.Minute,
		WorkerCount:      2,
		MaxQueueSize:     8,
		JobTTL:           time.Hour,
	}
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.DiscardHandler)
	conv := convert.NewService(nil, cfg.MaxMarkdownBytes, log)
	orch := pipeline.NewOrchestrator(cfg, conv, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, conv, log, cfg)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" })
	rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	if body["status"] != "healthy" || body["service"] != "md2docx-api" || body["version"] != Version {
		t.Errorf("unexpected health body %v", body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestRequestID_Echoed(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	if got := do(s, req).Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("expected echoed id, got %q", got)
	}
}

func TestParse(t *testing.T) {
	s := newTestServer(t, nil)
	form := url.Values{"markdown": {"# Hello\n\nworld"}}
	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSON(t, rec)
	ast, ok := body["ast"].([]any)
	if !ok || len(ast) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %v", body["ast"])
	}
	if first := ast[0].(map[string]any); first["type"] != "heading" {
		t.Errorf("expected heading, got %v", first["type"])
	}
	if n, _ := body["node_count"].(float64); n < 4 {
		t.Errorf("expected node_count >= 4, got %v", body["node_count"])
	}
}

func TestParse_MissingMarkdown(t *testing.T) {
	s := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/parse", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestConvert(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, jsonRequest(t, http.MethodPost, "/convert", map[string]any{
		"markdown": "# Quarterly\n\nSee [site](https://example.com).",
		"filename": "q3/report",
		"branding": map[string]any{"title": "Q3", "footer": map[string]any{"text": "Confidential"}},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != docxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=q3_report.docx` {
		t.Errorf("unexpected disposition %q", cd)
	}
	outline, err := parser.InspectDOCX(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if h := outline.Headings(); len(h) != 1 || h[0].Text != "Quarterly" {
		t.Errorf("expected Quarterly heading, got %+v", h)
	}
}

func TestConvert_Errors(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.MaxMarkdownBytes = 64 })
	tests := []struct {
		name string
		body any
		code int
		want string
	}{
		{"missing markdown", map[string]any{}, http.StatusBadRequest, "markdown is required"},
		{"bad color", map[string]any{"markdown": "x", "branding": map[string]any{"link_color": "zzz"}}, http.StatusBadRequest, "link_color"},
		{"bad position", map[string]any{"markdown": "x", "branding": map[string]any{"footer": map[string]any{"page_number_position": "top"}}}, http.StatusBadRequest, "footer"},
		{"branding not an object", map[string]any{"markdown": "x", "branding": "nope"}, http.StatusBadRequest, "invalid branding"},
		{"too large", map[string]any{"markdown": strings.Repeat("a", 65)}, http.StatusRequestEntityTooLarge, "too large"},
	}
	for _, tt := range tests {
		rec := do(s, jsonRequest(t, http.MethodPost, "/convert", tt.body))
		if rec.Code != tt.code {
			t.Errorf("%s: expected %d, got %d: %s", tt.name, tt.code, rec.Code, rec.Body.String())
			continue
		}
		if msg, _ := decodeJSON(t, rec)["error"].(string); !strings.Contains(msg, tt.want) {
			t.Errorf("%s: expected error mentioning %q, got %q", tt.name, tt.want, msg)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", strings.NewReader("{not json"))
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid json: expected 400, got %d", rec.Code)
	}
}

func multipartRequest(t *testing.T, path, filename, content, brandingJSON string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.WriteString(fw, content)
	if brandingJSON != "" {
		_ = mw.WriteField("branding", brandingJSON)
	}
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestConvertFile(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, multipartRequest(t, "/convert/file", "notes.md", "# Notes\n\n- a\n- b\n", `{"author":"Ops"}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=notes.docx` {
		t.Errorf("unexpected disposition %q", cd)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("expected zip body")
	}
}

func TestConvertFile_Rejects(t *testing.T) {
	s := newTestServer(t, nil)
	if rec := do(s, multipartRequest(t, "/convert/file", "deck.pdf", "%PDF", "")); rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported type: expected 400, got %d", rec.Code)
	}
	if rec := do(s, multipartRequest(t, "/convert/file", "a.md", "x", `{"body_font":{"size":-1}}`)); rec.Code != http.StatusBadRequest {
		t.Errorf("bad branding: expected 400, got %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodPost, "/convert/file", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	if rec := do(s, req); rec.Code != http.StatusBadRequest {
		t.Errorf("not multipart: expected 400, got %d", rec.Code)
	}
}

func TestBrandingSample(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/branding/sample", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeJSON(t, rec)
	for _, key := range []string{"page", "body_font", "header", "footer"} {
		if _, ok := body[key]; !ok {
			t.Errorf("expected sample key %q", key)
		}
	}
}

func TestJobs_Lifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, jsonRequest(t, http.MethodPost, "/api/jobs", map[string]any{"markdown": "# Async", "filename": "async"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeJSON(t, rec)
	id, _ := body["job_id"].(string)
	if body["poll_url"] != "/api/jobs/"+id {
		t.Errorf("unexpected poll url %v", body["poll_url"])
	}

	deadline := time.Now().Add(5 * time.Second)
	var status string
	for time.Now().Before(deadline) {
		rec = do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status: expected 200, got %d", rec.Code)
		}
		status, _ = decodeJSON(t, rec)["status"].(string)
		if status == string(pipeline.StatusCompleted) || status == string(pipeline.StatusFailed) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status != string(pipeline.StatusCompleted) {
		t.Fatalf("expected completed, got %q", status)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id+"/document", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("document: expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename=async.docx` {
		t.Errorf("unexpected disposition %q", cd)
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	stats := decodeJSON(t, rec)
	if conv := stats["conversions"].(map[string]any); conv["completed"].(float64) < 1 {
		t.Errorf("expected recorded conversion, got %v", conv)
	}
}

func TestJobs_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/api/jobs/missing", "/api/jobs/missing/document"} {
		if rec := do(s, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestJobs_QueueFullAndPending(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.WorkerCount = 0
		c.MaxQueueSize = 1
	})
	rec := do(s, jsonRequest(t, http.MethodPost, "/api/jobs", map[string]any{"markdown": "one"}))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	id, _ := decodeJSON(t, rec)["job_id"].(string)

	rec = do(s, jsonRequest(t, http.MethodPost, "/api/jobs", map[string]any{"markdown": "two"}))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/jobs/"+id+"/document", nil))
	if rec.Code != http.StatusConflict {
		t.Errorf("pending document: expected 409, got %d", rec.Code)
	}
}

func TestConvert_Timeout(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.WorkerCount = 0
		c.RequestTimeout = 50 * time.Millisecond
	})
	rec := do(s, jsonRequest(t, http.MethodPost, "/convert", map[string]any{"markdown": "slow"}))
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", rec.Code)
	}
}

func TestAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.APIKey = "secret" })
	tests := []struct {
		header string
		code   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Basic secret", http.StatusUnauthorized},
		{"Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/branding/sample", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if rec := do(s, req); rec.Code != tt.code {
			t.Errorf("%q: expected %d, got %d", tt.header, tt.code, rec.Code)
		}
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.RateLimit = 2 })
	codes := make([]int, 3)
	for i := range codes {
		codes[i] = do(s, httptest.NewRequest(http.MethodGet, "/branding/sample", nil)).Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 200, 200, 429, got %v", codes)
	}
	// Health is outside the limited group.
	if rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil)); rec.Code != http.StatusOK {
		t.Errorf("expected health to bypass rate limit, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.CORSOrigins = []string{"https://app.example.com"} })
	req := httptest.NewRequest(http.MethodOptions, "/convert", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := do(s, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("expected allowed origin, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	if got := do(s, req).Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for other origins, got %q", got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report.docx", "report.docx"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{`a\b/c`, "a_b_c"},
		{"line\r\nbreak", "line_break"},
		{`say "hi".docx`, "say _hi_.docx"},
		{"", "document.docx"},
		{"  ", "document.docx"},
		{"///", "document.docx"},
		{"..", "document.docx"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"report", "report.docx"},
		{"report.DOCX", "report.DOCX"},
		{"", "document.docx"},
		{"notes.md", "notes.md.docx"},
	}
	for _, tt := range tests {
		if got := outputFilename(tt.in); got != tt.want {
			t.Errorf("outputFilename(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}
