package images

import (
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// HostPolicy decides whether a remote image host may be contacted.
type HostPolicy interface {
	Allowed(host string) bool
}

// Allowlist permits exactly the listed hosts. Hosts are compared in
// lowercase ASCII (punycode) form without port, so "BÜCHER.example" and
// "xn--bcher-kva.example" are the same entry. The zero value and an
// empty list deny everything.
type Allowlist struct {
	hosts map[string]bool
}

func NewAllowlist(hosts ...string) *Allowlist {
	a := &Allowlist{hosts: make(map[string]bool, len(hosts))}
	for _, h := range hosts {
		if n := normalizeHost(h); n != "" {
			a.hosts[n] = true
		}
	}
	return a
}

func (a *Allowlist) Allowed(host string) bool {
	if a == nil || len(a.hosts) == 0 {
		return false
	}
	n := normalizeHost(host)
	return n != "" && a.hosts[n]
}

// Hosts returns the normalized entries.
func (a *Allowlist) Hosts() []string {
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a.hosts))
	for h := range a.hosts {
		out = append(out, h)
	}
	return out
}

func normalizeHost(h string) string {
	h = strings.TrimSpace(h)
	if h == "" {
		return ""
	}
	if host, _, err := net.SplitHostPort(h); err == nil {
		h = host
	}
	h = strings.TrimSuffix(strings.Trim(h, "[]"), ".")
	if ascii, err := idna.Lookup.ToASCII(h); err == nil {
		h = ascii
	}
	return strings.ToLower(h)
}

// denyAll is used when no policy is supplied.
type denyAll struct{}

func (denyAll) Allowed(string) bool { return false }
