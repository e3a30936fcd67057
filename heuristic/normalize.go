package heuristic

import "strings"

// maxNoisePasses bounds noise removal for replacement sets that never
// settle, such as two patterns rewriting each other's output.
const maxNoisePasses = 16

// Normalize collapses whitespace and removes the configured noise patterns.
// Removal repeats until the text stops changing, so normalizing normalized
// text returns it unchanged.
func (e *Extractor) Normalize(text string) string {
	s := collapse(text)
	for i := 0; i < maxNoisePasses; i++ {
		next := s
		for _, n := range e.noise {
			next = n.re.ReplaceAllLiteralString(next, n.replacement)
		}
		next = collapse(next)
		if next == s {
			return s
		}
		s = next
	}
	return s
}

// Normalize normalizes text using DefaultRules.
func Normalize(text string) string {
	return defaultExtractor.Normalize(text)
}

var defaultExtractor = NewExtractor()

// collapse replaces every whitespace run with a single space and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
