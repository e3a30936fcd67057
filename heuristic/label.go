package heuristic

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/carnet"
)

// ExtractByLabel returns the value following the first label of field f
// found in text. Labels are tried in order, most specific first. Name,
// career, and period values end at the next known label word. Name and
// career values are uppercase runs and stop at mixed-case prose.
func (e *Extractor) ExtractByLabel(text string, f carnet.Field) (string, bool) {
	for _, re := range e.labels[f] {
		m := re.FindStringSubmatchIndex(text)
		if m == nil {
			continue
		}
		v := text[m[2]:m[3]]
		switch f {
		case carnet.FieldName, carnet.FieldCareer:
			next, _ := utf8.DecodeRuneInString(text[m[3]:])
			v = e.cutAtStopLabel(dropCapitalInitial(v, next))
		case carnet.FieldPeriod:
			v = e.cutAtStopLabel(v)
		}
		if v = strings.TrimSpace(v); v != "" {
			return v, true
		}
	}
	return "", false
}

// cutAtStopLabel truncates v before its first stop label word.
func (e *Extractor) cutAtStopLabel(v string) string {
	tokens := strings.Fields(v)
	for i, tok := range tokens {
		if _, ok := e.stopLabels[strings.ToLower(strings.TrimRight(tok, ":"))]; ok {
			return strings.Join(tokens[:i], " ")
		}
	}
	return strings.Join(tokens, " ")
}

// dropCapitalInitial removes a trailing one-letter token of v when next, the
// rune following v in the text, is lowercase. That letter is the capital of
// a mixed-case word such as "Correo", not part of the value.
func dropCapitalInitial(v string, next rune) string {
	if !unicode.IsLower(next) {
		return v
	}
	i := strings.LastIndexByte(v, ' ')
	if utf8.RuneCountInString(v[i+1:]) != 1 {
		return v
	}
	return v[:i+1]
}
