// Package images resolves logo references (local paths or http(s) URLs)
// into PNG bytes. Remote hosts must pass a HostPolicy supplied at
// construction; every failure wraps ErrImageUnavailable.
package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTimeout  = 30 * time.Second
	DefaultMaxBytes = 10 << 20
)

// Fetcher is the capability the emitter uses to obtain images.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*Image, error)
}

// Resolver fetches and normalizes images. It is safe for concurrent use.
type Resolver struct {
	policy     HostPolicy
	client     *http.Client
	log        *slog.Logger
	maxBytes   int64
	maxRetries int
	backoff    func(attempt int) time.Duration
	noLocal    bool
}

type Option func(*Resolver)

// WithHTTPClient replaces the HTTP client. Its Timeout bounds each
// request.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.client = &http.Client{Timeout: d}
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxBytes = n
		}
	}
}

// WithRetries sets the number of attempts for retryable responses and
// the delay between them.
func WithRetries(attempts int, backoff func(int) time.Duration) Option {
	return func(r *Resolver) {
		if attempts > 0 {
			r.maxRetries = attempts
		}
		if backoff != nil {
			r.backoff = backoff
		}
	}
}

// WithoutLocalFiles rejects filesystem references. Services that take
// style configuration from untrusted callers use it.
func WithoutLocalFiles() Option {
	return func(r *Resolver) { r.noLocal = true }
}

// NewResolver creates a resolver. A nil policy denies all remote hosts.
func NewResolver(policy HostPolicy, log *slog.Logger, opts ...Option) *Resolver {
	if policy == nil {
		policy = denyAll{}
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &Resolver{
		policy:     policy,
		client:     &http.Client{Timeout: DefaultTimeout},
		log:        log,
		maxBytes:   DefaultMaxBytes,
		maxRetries: MaxRetries,
		backoff:    Backoff,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.client = r.guardRedirects(r.client)
	return r
}

// maxRedirects matches the net/http default.
const maxRedirects = 10

// guardRedirects returns a copy of c that applies the host policy to
// every redirect hop. A caller-supplied CheckRedirect still runs after
// the policy check.
func (r *Resolver) guardRedirects(c *http.Client) *http.Client {
	guarded := *c
	next := c.CheckRedirect
	guarded.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !r.policy.Allowed(req.URL.Hostname()) {
			return fmt.Errorf("redirect to host %q is not in the allowlist", req.URL.Hostname())
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &guarded
}

// Fetch resolves ref and returns the image as PNG.
func (r *Resolver) Fetch(ctx context.Context, ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrImageUnavailable)
	}

	var (
		data []byte
		hint string
		err  error
	)
	switch {
	case isRemote(ref):
		data, hint, err = r.fetchRemote(ctx, ref)
	case r.noLocal:
		err = errors.New("local files are disabled")
	default:
		data, hint, err = r.readLocal(ref)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, ref, err)
	}

	img, err := Normalize(data, hint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageUnavailable, ref, err)
	}
	r.log.Debug("image resolved", "ref", ref, "source", img.Source, "width", img.Width, "height", img.Height)
	return img, nil
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func (r *Resolver) readLocal(path string) ([]byte, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	if info.IsDir() {
		return nil, "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > r.maxBytes {
		return nil, "", fmt.Errorf("file exceeds %d bytes", r.maxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, strings.ToLower(filepath.Ext(path)), nil
}

func (r *Resolver) fetchRemote(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if !r.policy.Allowed(u.Hostname()) {
		return nil, "", fmt.Errorf("host %q is not in the allowlist", u.Hostname())
	}

	var lastErr error
	for attempt := range r.maxRetries {
		var data []byte
		var hint string
		data, hint, lastErr = r.get(ctx, u)
		if lastErr == nil {
			return data, hint, nil
		}
		if !IsRetryable(lastErr) {
			break
		}
		if attempt == r.maxRetries-1 {
			break
		}
		r.log.Warn("retryable image fetch error", "url", rawURL, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(r.backoff(attempt)):
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}
	return nil, "", lastErr
}

func (r *Resolver) get(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, "", &RetryableError{StatusCode: resp.StatusCode, URL: u.String()}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > r.maxBytes {
		return nil, "", errors.New("response exceeds size limit")
	}

	hint := strings.ToLower(filepath.Ext(u.Path))
	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil && mt == "image/svg+xml" {
		hint = mt
	}
	return data, hint, nil
}
