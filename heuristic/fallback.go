package heuristic

import (
	"regexp"

	"github.com/fwojciec/carnet"
)

var (
	bareDocumentRe = regexp.MustCompile(`(?:^|\D)(\d{6,12})(?:\D|$)`)
	bareEmailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	bareYearRe     = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)

	// barePhoneRe allows an optional "+CC " country prefix but no inner
	// spaces, so adjacent numbers are not read as one phone.
	barePhoneRe = regexp.MustCompile(`(?:^|[^\d+])((?:\+\d{1,3} )?\d[\d\-()]{5,13}\d|\+\d[\d\-()]{5,13}\d)(?:\D|$)`)
)

// bareDocument returns the first standalone run of 6 to 12 digits that is
// not the value of a phone label.
func (e *Extractor) bareDocument(text string, _ carnet.Record) string {
	for off := 0; off < len(text); {
		loc := bareDocumentRe.FindStringSubmatchIndex(text[off:])
		if loc == nil {
			break
		}
		start, end := off+loc[2], off+loc[3]
		if e.phoneLabel == nil || !e.phoneLabel.MatchString(text[:start]) {
			return text[start:end]
		}
		off = end
	}
	return ""
}

// bareEmail returns the first address-like token.
func bareEmail(text string, _ carnet.Record) string {
	return bareEmailRe.FindString(text)
}

// bareYear returns the first standalone year between 1900 and 2099.
func bareYear(text string, _ carnet.Record) string {
	if m := bareYearRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// barePhone returns the first digit run that normalizes to a valid phone
// distinct from the document. Runs equal to the document are skipped, so a
// number that merely contains the document's digits still qualifies.
func barePhone(text string, found carnet.Record) string {
	for off := 0; off < len(text); {
		loc := barePhoneRe.FindStringSubmatchIndex(text[off:])
		if loc == nil {
			break
		}
		candidate := text[off+loc[2] : off+loc[3]]
		if p := cleanPhone(candidate, found.Document); p != "" {
			return p
		}
		off += loc[3]
	}
	return ""
}
