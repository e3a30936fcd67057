package main

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/carnet"
)

type resolveOutput struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
	carnet.Record
	Debug *resolveDebug `json:"_debug,omitempty"`
}

type resolveDebug struct {
	BodyTextLength     int    `json:"bodyTextLength"`
	TriedRender        bool   `json:"triedRender"`
	RenderError        string `json:"renderError,omitempty"`
	RenderedTextLength int    `json:"renderedTextLength,omitempty"`
	RenderedMerged     bool   `json:"renderedMerged"`
	BodyText           string `json:"bodyText"`
	RenderedText       string `json:"renderedText,omitempty"`
}

// Run executes the resolve command.
func (c *ResolveCmd) Run(deps *Dependencies) error {
	res, err := deps.Resolver.Resolve(deps.Ctx, carnet.Payload(c.Payload))
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	out := resolveOutput{Text: res.Text, URL: res.URL, Record: res.Record}
	if c.Debug {
		d := res.Diagnostics
		out.Debug = &resolveDebug{
			BodyTextLength:     len([]rune(d.BodyText)),
			TriedRender:        d.TriedRender,
			RenderError:        d.RenderError,
			RenderedTextLength: len([]rune(d.RenderedText)),
			RenderedMerged:     d.RenderedMerged,
			BodyText:           d.BodyText,
			RenderedText:       d.RenderedText,
		}
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
