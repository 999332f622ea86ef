package images

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

const testSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 40 20"><rect x="0" y="0" width="40" height="20" fill="#2F5496"/></svg>`

func noBackoff(int) time.Duration { return 0 }

func newTestResolver(policy HostPolicy, opts ...Option) *Resolver {
	opts = append([]Option{WithRetries(MaxRetries, noBackoff)}, opts...)
	return NewResolver(policy, nil, opts...)
}

func TestFetch_EmptyRef(t *testing.T) {
	_, err := newTestResolver(nil).Fetch(context.Background(), "  ")
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
}

func TestFetch_HostNotAllowed(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	for _, policy := range []HostPolicy{nil, NewAllowlist(), NewAllowlist("cdn.example.com")} {
		_, err := newTestResolver(policy).Fetch(context.Background(), srv.URL+"/logo.png")
		if !errors.Is(err, ErrImageUnavailable) {
			t.Errorf("expected ErrImageUnavailable, got %v", err)
		}
	}
	if hits.Load() != 0 {
		t.Errorf("expected no requests to a denied host, got %d", hits.Load())
	}
}

func TestFetch_RedirectToDeniedHost(t *testing.T) {
	data := pngBytes(t, 8, 4)
	var deniedHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.Host, "localhost:") {
			deniedHits.Add(1)
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
			return
		}
		_, port, _ := net.SplitHostPort(r.Host)
		http.Redirect(w, r, "http://localhost:"+port+"/logo.png", http.StatusFound)
	}))
	defer srv.Close()

	clients := map[string][]Option{
		"default client": nil,
		"with timeout":   {WithTimeout(time.Second)},
		"custom client":  {WithHTTPClient(&http.Client{})},
	}
	for name, opts := range clients {
		t.Run(name, func(t *testing.T) {
			img, err := newTestResolver(NewAllowlist("127.0.0.1"), opts...).
				Fetch(context.Background(), srv.URL+"/logo.png")
			if !errors.Is(err, ErrImageUnavailable) {
				t.Errorf("expected ErrImageUnavailable, got %v", err)
			}
			if img != nil {
				t.Error("expected no image from a redirected fetch")
			}
		})
	}
	if deniedHits.Load() != 0 {
		t.Errorf("expected no requests to the redirect target, got %d", deniedHits.Load())
	}
}

func TestFetch_RedirectWithinAllowlist(t *testing.T) {
	data := pngBytes(t, 8, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/old.png" {
			http.Redirect(w, r, "/logo.png", http.StatusMovedPermanently)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	img, err := newTestResolver(NewAllowlist("127.0.0.1")).Fetch(context.Background(), srv.URL+"/old.png")
	if err != nil {
		t.Fatalf("expected redirect on the same host to succeed, got %v", err)
	}
	if img.Width != 8 || img.Height != 4 {
		t.Errorf("expected 8x4 image, got %dx%d", img.Width, img.Height)
	}
}

func TestFetch_RemotePNG(t *testing.T) {
	data := pngBytes(t, 8, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(data)
	}))
	defer srv.Close()

	img, err := newTestResolver(NewAllowlist("127.0.0.1")).Fetch(context.Background(), srv.URL+"/logo.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != 8 || img.Height != 4 {
		t.Errorf("expected 8x4, got %dx%d", img.Width, img.Height)
	}
	if img.Source != "png" {
		t.Errorf("expected source png, got %q", img.Source)
	}
	if _, err := png.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Errorf("expected PNG output: %v", err)
	}
}

func TestFetch_RemoteSVGByContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/svg+xml; charset=utf-8")
		w.Write([]byte(testSVG))
	}))
	defer srv.Close()

	img, err := newTestResolver(NewAllowlist("127.0.0.1")).Fetch(context.Background(), srv.URL+"/logo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Source != "svg" || img.Width != 40 || img.Height != 20 {
		t.Errorf("expected 40x20 svg, got %s %dx%d", img.Source, img.Width, img.Height)
	}
}

func TestFetch_NotFound(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestResolver(NewAllowlist("127.0.0.1")).Fetch(context.Background(), srv.URL+"/missing.png")
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 404 not to be retried, got %d requests", hits.Load())
	}
}

func TestFetch_RetriesTransientErrors(t *testing.T) {
	data := pngBytes(t, 2, 2)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(data)
	}))
	defer srv.Close()

	img, err := newTestResolver(NewAllowlist("127.0.0.1")).Fetch(context.Background(), srv.URL+"/logo.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != 2 {
		t.Errorf("expected width 2, got %d", img.Width)
	}
	if hits.Load() != 3 {
		t.Errorf("expected 3 requests, got %d", hits.Load())
	}
}

func TestFetch_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestResolver(NewAllowlist("127.0.0.1")).Fetch(context.Background(), srv.URL+"/logo.png")
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
	if hits.Load() != MaxRetries {
		t.Errorf("expected %d requests, got %d", MaxRetries, hits.Load())
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := newTestResolver(NewAllowlist("127.0.0.1"), WithTimeout(50*time.Millisecond)).
		Fetch(context.Background(), srv.URL+"/slow.png")
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("expected timeout well under 1s, took %s", elapsed)
	}
}

func TestFetch_TooLarge(t *testing.T) {
	data := pngBytes(t, 64, 64)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	_, err := newTestResolver(NewAllowlist("127.0.0.1"), WithMaxBytes(16)).
		Fetch(context.Background(), srv.URL+"/big.png")
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
}

func TestFetch_Local(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(pngPath, pngBytes(t, 5, 3), 0o644); err != nil {
		t.Fatal(err)
	}
	svgPath := filepath.Join(dir, "logo.svg")
	if err := os.WriteFile(svgPath, []byte(testSVG), 0o644); err != nil {
		t.Fatal(err)
	}
	badPath := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(badPath, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestResolver(nil)
	tests := []struct {
		ref    string
		w, h   int
		source string
		ok     bool
	}{
		{pngPath, 5, 3, "png", true},
		{svgPath, 40, 20, "svg", true},
		{badPath, 0, 0, "", false},
		{filepath.Join(dir, "missing.png"), 0, 0, "", false},
		{dir, 0, 0, "", false},
	}
	for _, tt := range tests {
		img, err := r.Fetch(context.Background(), tt.ref)
		if !tt.ok {
			if !errors.Is(err, ErrImageUnavailable) {
				t.Errorf("%s: expected ErrImageUnavailable, got %v", filepath.Base(tt.ref), err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", filepath.Base(tt.ref), err)
			continue
		}
		if img.Width != tt.w || img.Height != tt.h || img.Source != tt.source {
			t.Errorf("%s: expected %s %dx%d, got %s %dx%d", filepath.Base(tt.ref), tt.source, tt.w, tt.h, img.Source, img.Width, img.Height)
		}
	}
}

func TestFetch_LocalDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	if err := os.WriteFile(path, pngBytes(t, 5, 3), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := newTestResolver(nil, WithoutLocalFiles()).Fetch(context.Background(), path)
	if !errors.Is(err, ErrImageUnavailable) {
		t.Fatalf("expected ErrImageUnavailable, got %v", err)
	}
}

func TestNormalize_DownscalesLargeImages(t *testing.T) {
	img, err := Normalize(pngBytes(t, MaxDimension*2, 10), ".png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Width != MaxDimension {
		t.Errorf("expected width %d, got %d", MaxDimension, img.Width)
	}
}

func TestAspectHeight(t *testing.T) {
	img := &Image{Width: 200, Height: 100}
	if got := img.AspectHeight(1.0); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	if got := (&Image{}).AspectHeight(2); got != 2 {
		t.Errorf("expected fallback to width, got %v", got)
	}
}

func TestAllowlist(t *testing.T) {
	a := NewAllowlist("Example.COM:443", "bücher.example", " ", "[::1]")
	tests := []struct {
		host string
		want bool
	}{
		{"example.com", true},
		{"EXAMPLE.com.", true},
		{"xn--bcher-kva.example", true},
		{"bücher.example", true},
		{"::1", true},
		{"sub.example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := a.Allowed(tt.host); got != tt.want {
			t.Errorf("%q: expected %v, got %v", tt.host, tt.want, got)
		}
	}
	if NewAllowlist().Allowed("example.com") {
		t.Error("expected empty allowlist to deny")
	}
	var zero *Allowlist
	if zero.Allowed("example.com") {
		t.Error("expected nil allowlist to deny")
	}
}

func TestBackoff(t *testing.T) {
	for attempt := range 6 {
		d := Backoff(attempt)
		if d <= 0 || d > 6*time.Second {
			t.Errorf("attempt %d: backoff %s out of range", attempt, d)
		}
	}
}
