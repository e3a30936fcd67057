package heuristic

import (
	"regexp"
	"strings"

	"github.com/fwojciec/carnet"
)

var (
	documentRe = regexp.MustCompile(`^\d{6,12}$`)
	emailRe    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
)

// Phone length bounds, in digits.
const (
	minPhoneDigits = 7
	maxPhoneDigits = 15
)

// Sanitize returns rec with every field cleaned to its canonical form.
// Values that do not satisfy their field's format become empty, and a phone
// equal to the document is dropped. Sanitize is idempotent.
func (e *Extractor) Sanitize(rec carnet.Record) carnet.Record {
	var out carnet.Record
	out.Document = e.clean(carnet.FieldDocument, rec.Document, out)
	out.Name = e.clean(carnet.FieldName, rec.Name, out)
	out.Career = e.clean(carnet.FieldCareer, rec.Career, out)
	out.Email = e.clean(carnet.FieldEmail, rec.Email, out)
	out.Period = e.clean(carnet.FieldPeriod, rec.Period, out)
	out.Phone = e.clean(carnet.FieldPhone, rec.Phone, out)
	return out
}

// clean returns v in the canonical form of field f, or an empty string if
// v is not a valid value. found holds the fields already accepted.
func (e *Extractor) clean(f carnet.Field, v string, found carnet.Record) string {
	v = collapse(v)
	if v == "" {
		return ""
	}
	switch f {
	case carnet.FieldName:
		return e.cleanName(v)
	case carnet.FieldDocument:
		if documentRe.MatchString(v) {
			return v
		}
		return ""
	case carnet.FieldCareer:
		return e.cleanCareer(v)
	case carnet.FieldEmail:
		v = strings.ToLower(v)
		if emailRe.MatchString(v) {
			return v
		}
		return ""
	case carnet.FieldPhone:
		return cleanPhone(v, found.Document)
	case carnet.FieldPeriod:
		return v
	}
	return ""
}

// cleanName truncates v before its first denylisted word so a label
// capture cannot run on into the career.
func (e *Extractor) cleanName(v string) string {
	tokens := strings.Fields(v)
	for i, tok := range tokens {
		if e.denylisted(tok) {
			return strings.Join(tokens[:i], " ")
		}
	}
	return v
}

// cleanCareer truncates v at the first career stop, such as a period label
// concatenated to the career without a separator.
func (e *Extractor) cleanCareer(v string) string {
	cut := len(v)
	for _, re := range e.careerStops {
		if loc := re.FindStringIndex(v); loc != nil && loc[0] < cut {
			cut = loc[0]
		}
	}
	return strings.Trim(collapse(v[:cut]), " -")
}

// cleanPhone reduces v to its digits, keeping a leading "+". It returns an
// empty string when the digit count is out of range or the digits equal
// document, since documents and phones share the same grammar.
func cleanPhone(v, document string) string {
	plus := strings.HasPrefix(strings.TrimSpace(v), "+")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
	if len(digits) < minPhoneDigits || len(digits) > maxPhoneDigits {
		return ""
	}
	if document != "" && digits == document {
		return ""
	}
	if plus {
		return "+" + digits
	}
	return digits
}
