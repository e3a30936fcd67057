package carnet

// TextExtractor flattens an HTML page to its visible body text.
type TextExtractor interface {
	// BodyText returns the visible text of the page body with whitespace
	// collapsed. Scripts and styles are excluded.
	BodyText(html string) (string, error)
}

// FieldExtractor turns flattened page text into a Record.
// Extraction never fails: missing or malformed input yields empty fields.
type FieldExtractor interface {
	// Extract returns the fields found in text.
	Extract(text string) Record

	// NeedsRender reports whether text is too short to be a rendered card
	// page, meaning a client-side rendered source should be tried.
	NeedsRender(text string) bool
}
