package carnet

import (
	"context"
	"net/url"
	"strings"
)

// Payload is the text decoded from a QR code.
type Payload string

// URL returns the canonical form of the payload when it is an absolute
// http or https URL, and false otherwise.
func (p Payload) URL() (string, bool) {
	s := strings.TrimSpace(string(p))
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Host == "" {
		return "", false
	}
	return u.String(), true
}

// Resolution is the outcome of resolving a single payload.
type Resolution struct {
	// Text is the raw payload as decoded.
	Text string

	// URL is the fetched URL. Empty when the payload is not a URL.
	URL string

	// Record holds the extracted fields.
	Record Record

	// Diagnostics describe how the record was obtained.
	Diagnostics Diagnostics
}

// Diagnostics describe the fetch and render steps of a resolution.
type Diagnostics struct {
	HTML           string
	BodyText       string
	TriedRender    bool
	RenderError    string
	RenderedHTML   string
	RenderedText   string
	RenderedMerged bool
}

// Resolver resolves decoded QR payloads into records.
type Resolver interface {
	// Resolve fetches the page behind payload, if any, and extracts its fields.
	// Payloads that are not URLs resolve to a Resolution holding only Text.
	// Returns the context error if ctx is cancelled before extraction.
	Resolve(ctx context.Context, payload Payload) (*Resolution, error)
}
