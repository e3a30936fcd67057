package http

import (
	"strings"

	"github.com/fwojciec/carnet"
	"golang.org/x/net/idna"
)

// DefaultAllowedHosts are the card hosts proxied when none are configured.
var DefaultAllowedHosts = []string{"academico.ucb.edu.bo"}

// Allowlist holds the hostnames the proxy is allowed to fetch. Hosts are
// compared in their lowercase ASCII (punycode) form, so "ACADEMICO.ucb.edu.bo"
// and internationalized spellings match their canonical entry. Subdomains
// do not match their parent.
type Allowlist struct {
	hosts []string
	set   map[string]struct{}
}

// NewAllowlist creates an Allowlist from hostnames. Blank entries are
// skipped. Returns EINVALID if a hostname cannot be converted to ASCII.
func NewAllowlist(hosts []string) (*Allowlist, error) {
	a := &Allowlist{set: make(map[string]struct{})}
	for _, h := range hosts {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		ascii, err := canonicalHost(h)
		if err != nil {
			return nil, carnet.Errorf(carnet.EINVALID, "invalid allowed host %q: %v", h, err)
		}
		if _, ok := a.set[ascii]; ok {
			continue
		}
		a.set[ascii] = struct{}{}
		a.hosts = append(a.hosts, h)
	}
	return a, nil
}

// Allowed reports whether hostname is on the list.
func (a *Allowlist) Allowed(hostname string) bool {
	ascii, err := canonicalHost(hostname)
	if err != nil {
		return false
	}
	_, ok := a.set[ascii]
	return ok
}

// Hosts returns the configured hostnames as given.
func (a *Allowlist) Hosts() []string {
	out := make([]string, len(a.hosts))
	copy(out, a.hosts)
	return out
}

func canonicalHost(h string) (string, error) {
	return idna.Lookup.ToASCII(strings.TrimSuffix(strings.TrimSpace(h), "."))
}
