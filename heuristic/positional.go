package heuristic

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/carnet"
)

var (
	// trailingUpperRun matches 2 to 7 all-uppercase words ending the text.
	trailingUpperRun = regexp.MustCompile(`(?:^|[^\p{L}])((?:\p{Lu}+ ){1,6}\p{Lu}+) ?$`)

	// capitalizedPhrase matches two or three capitalized words.
	capitalizedPhrase = regexp.MustCompile(`(?:^|[^\p{L}])(\p{Lu}\p{Ll}+ \p{Lu}\p{Ll}+(?: \p{Lu}\p{Ll}+)?)`)
)

// minNameLength is the shortest name accepted from a positional match.
const minNameLength = 5

// ExtractNameNearDocument returns the run of uppercase words immediately
// preceding the first standalone occurrence of document in text. Card layouts print the
// holder's name right before the document number, so this recovers the name
// when its label did not survive flattening.
//
// This is a guess: any uppercase words before the number qualify, so
// headings left over after normalization can be returned as a name.
// Candidates containing a denylisted keyword or shorter than five characters
// are rejected.
func (e *Extractor) ExtractNameNearDocument(text, document string) (string, bool) {
	if document == "" {
		return "", false
	}
	idx := indexNumber(text, document)
	if idx <= 0 {
		return "", false
	}

	window := lastRunes(text[:idx], e.nameWindow)
	m := trailingUpperRun.FindStringSubmatch(window)
	if m == nil {
		return "", false
	}

	candidate := strings.TrimSpace(m[1])
	if utf8.RuneCountInString(candidate) < minNameLength {
		return "", false
	}
	if strings.IndexFunc(candidate, unicode.IsDigit) >= 0 {
		return "", false
	}
	if e.denylisted(candidate) {
		return "", false
	}
	return candidate, true
}

// indexNumber returns the index of the first occurrence of digits in text
// that is not part of a longer digit run, or -1.
func indexNumber(text, digits string) int {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], digits)
		if i < 0 {
			return -1
		}
		i += off
		end := i + len(digits)
		if (i == 0 || !isASCIIDigit(text[i-1])) && (end == len(text) || !isASCIIDigit(text[end])) {
			return i
		}
		off = i + 1
	}
	return -1
}

func isASCIIDigit(b byte) bool { return '0' <= b && b <= '9' }

func (e *Extractor) nameNearDocument(text string, found carnet.Record) string {
	v, _ := e.ExtractNameNearDocument(text, found.Document)
	return v
}

// capitalizedPhrase returns the first two- or three-word capitalized phrase
// that is neither a label nor an academic term.
func (e *Extractor) capitalizedPhrase(text string, _ carnet.Record) string {
	for _, m := range capitalizedPhrase.FindAllStringSubmatch(text, -1) {
		if e.hasStopLabel(m[1]) || e.denylisted(m[1]) {
			continue
		}
		return m[1]
	}
	return ""
}

// careerKeyword returns the uppercase words starting at the first career
// keyword, such as "INGENIERIA DE SISTEMAS".
func (e *Extractor) careerKeyword(text string, _ carnet.Record) string {
	if e.careerKeywords == nil {
		return ""
	}
	if m := e.careerKeywords.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// semesterPeriod returns an enrollment period such as "SEGUNDO SEMESTRE 2025".
func (e *Extractor) semesterPeriod(text string, _ carnet.Record) string {
	if m := e.semester.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// denylisted reports whether s contains a denylisted keyword.
func (e *Extractor) denylisted(s string) bool {
	upper := strings.ToUpper(s)
	for _, w := range e.nameDenylist {
		if strings.Contains(upper, w) {
			return true
		}
	}
	return false
}

func (e *Extractor) hasStopLabel(s string) bool {
	for _, tok := range strings.Fields(s) {
		if _, ok := e.stopLabels[strings.ToLower(tok)]; ok {
			return true
		}
	}
	return false
}

// lastRunes returns the last n runes of s.
func lastRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[len(r)-n:])
}
