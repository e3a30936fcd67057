package mock

import "github.com/fwojciec/carnet"

var _ carnet.TextExtractor = (*TextExtractor)(nil)

// TextExtractor is a mock implementation of carnet.TextExtractor.
type TextExtractor struct {
	BodyTextFn func(html string) (string, error)
}

func (e *TextExtractor) BodyText(html string) (string, error) {
	return e.BodyTextFn(html)
}

var _ carnet.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor is a mock implementation of carnet.FieldExtractor.
type FieldExtractor struct {
	ExtractFn     func(text string) carnet.Record
	NeedsRenderFn func(text string) bool
}

func (e *FieldExtractor) Extract(text string) carnet.Record {
	return e.ExtractFn(text)
}

func (e *FieldExtractor) NeedsRender(text string) bool {
	return e.NeedsRenderFn(text)
}
