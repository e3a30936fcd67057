// Package resolve turns decoded QR payloads into card records. It fetches
// the card page, flattens it to text, extracts fields, and falls back to a
// headless render when the fetched page is an empty client-side shell.
package resolve

import (
	"context"
	"fmt"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/carnet"
)

// Ensure Resolver implements carnet.Resolver at compile time.
var _ carnet.Resolver = (*Resolver)(nil)

// errNoRenderer is recorded when a page needs rendering but no renderer is
// configured.
const errNoRenderer = "headless renderer not configured"

// Resolver resolves payloads by fetching and extracting card pages.
// Renderer and Limiter are optional.
type Resolver struct {
	Direct      carnet.Fetcher
	Renderer    carnet.Fetcher
	Text        carnet.TextExtractor
	Fields      carnet.FieldExtractor
	Limiter     carnet.DomainLimiter
	RetryDelays []time.Duration
}

// Resolve fetches the page behind payload and extracts its fields.
//
// Payloads that are not http(s) URLs resolve to a Resolution holding only
// the raw text. Render failures are recorded in the diagnostics and never
// fail the resolution; the direct record is returned instead.
func (r *Resolver) Resolve(ctx context.Context, payload carnet.Payload) (*carnet.Resolution, error) {
	res := &carnet.Resolution{Text: string(payload)}

	target, ok := payload.URL()
	if !ok {
		return res, nil
	}
	res.URL = target

	if err := r.wait(ctx, target); err != nil {
		return nil, err
	}

	delays := r.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := fetchWithRetry(ctx, r.Direct, target, delays)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := r.Text.BodyText(html)
	if err != nil {
		return nil, fmt.Errorf("extract text %s: %w", target, err)
	}
	res.Diagnostics.HTML = html
	res.Diagnostics.BodyText = text
	res.Record = r.Fields.Extract(text)

	if !r.Fields.NeedsRender(text) {
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.render(ctx, res)

	return res, nil
}

// render re-fetches the page through the renderer and merges the rendered
// record over the direct one when the rendered text is longer.
func (r *Resolver) render(ctx context.Context, res *carnet.Resolution) {
	d := &res.Diagnostics
	d.TriedRender = true

	if r.Renderer == nil {
		d.RenderError = errNoRenderer
		return
	}

	html, err := r.Renderer.Fetch(ctx, res.URL)
	if err != nil {
		d.RenderError = err.Error()
		return
	}
	text, err := r.Text.BodyText(html)
	if err != nil {
		d.RenderError = err.Error()
		return
	}
	d.RenderedHTML = html
	d.RenderedText = text

	if utf8.RuneCountInString(text) <= utf8.RuneCountInString(d.BodyText) {
		return
	}
	res.Record = res.Record.Merge(r.Fields.Extract(text))
	d.RenderedMerged = true
}

// wait checks the context and waits on the limiter for the target's host.
func (r *Resolver) wait(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Limiter == nil {
		return nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return carnet.Errorf(carnet.EINVALID, "invalid url: %v", err)
	}
	return r.Limiter.Wait(ctx, u.Hostname())
}
