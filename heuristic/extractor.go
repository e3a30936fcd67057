package heuristic

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/carnet"
)

// Ensure Extractor implements carnet.FieldExtractor at compile time.
var _ carnet.FieldExtractor = (*Extractor)(nil)

// Extractor extracts card fields from flattened page text.
// Extractor holds only compiled, read-only rules and is safe for
// concurrent use.
type Extractor struct {
	noise          []noisePattern
	labels         map[carnet.Field][]*regexp.Regexp
	phoneLabel     *regexp.Regexp
	stopLabels     map[string]struct{}
	nameDenylist   []string
	careerKeywords *regexp.Regexp
	careerStops    []*regexp.Regexp
	semester       *regexp.Regexp
	nameWindow     int
	minTextLength  int

	chains []chain
}

type noisePattern struct {
	re          *regexp.Regexp
	replacement string
}

// chain is the ordered list of strategies producing one field.
type chain struct {
	field      carnet.Field
	strategies []strategy
}

// strategy proposes a raw value for a field from normalized text and the
// fields found so far. An empty string means no match.
type strategy func(text string, found carnet.Record) string

// labelValue is the capture appended to every label pattern of a field.
var labelValue = map[carnet.Field]string{
	carnet.FieldName:     `(\p{Lu}[\p{Lu} ]{1,199})`,
	carnet.FieldDocument: `(\d{6,12})(?:\D|$)`,
	carnet.FieldCareer:   `(\p{Lu}[\p{Lu}\- ]{2,79})`,
	carnet.FieldEmail:    `([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`,
	carnet.FieldPhone:    `(\+?\d[\d\-() ]{5,19})`,
	carnet.FieldPeriod:   `([\p{L}\d][\p{L}\d\- ]{1,59})`,
}

// New compiles rules into an Extractor.
func New(rules Rules) (*Extractor, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{
		labels:        make(map[carnet.Field][]*regexp.Regexp),
		stopLabels:    make(map[string]struct{}),
		nameWindow:    rules.NameWindow,
		minTextLength: rules.MinTextLength,
	}

	for _, n := range rules.Noise {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return nil, compileError("noise", n.Pattern, err)
		}
		repl := n.Replacement
		if repl == "" {
			repl = " "
		}
		e.noise = append(e.noise, noisePattern{re: re, replacement: repl})
	}

	for _, f := range carnet.Fields {
		for _, label := range rules.Labels[f] {
			re, err := regexp.Compile(`(?:^|[^\p{L}])(?i:` + label + `)\s*:?\s*` + labelValue[f])
			if err != nil {
				return nil, compileError("label", label, err)
			}
			e.labels[f] = append(e.labels[f], re)
		}
	}

	// phoneLabel matches text ending in a phone label, so the number after
	// it is never taken for the document.
	if phones := rules.Labels[carnet.FieldPhone]; len(phones) > 0 {
		pattern := `(?:^|[^\p{L}])(?i:` + strings.Join(phones, "|") + `)\s*:?\s*(?:\+\d{1,3}\s*)?$`
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, compileError("label", pattern, err)
		}
		e.phoneLabel = re
	}

	for _, w := range rules.StopLabels {
		e.stopLabels[strings.ToLower(w)] = struct{}{}
	}
	for _, w := range rules.NameDenylist {
		e.nameDenylist = append(e.nameDenylist, strings.ToUpper(w))
	}

	if len(rules.CareerKeywords) > 0 {
		pattern := `(?:^|[^\p{L}])((?i:` + strings.Join(rules.CareerKeywords, "|") + `)(?: [\p{Lu}\-]+)*)`
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, compileError("career keyword", pattern, err)
		}
		e.careerKeywords = re
	}

	for _, p := range rules.CareerStops {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, compileError("career stop", p, err)
		}
		e.careerStops = append(e.careerStops, re)
	}

	ordinals := make([]string, 0, len(rules.Ordinals)+1)
	for _, o := range rules.Ordinals {
		ordinals = append(ordinals, regexp.QuoteMeta(o))
	}
	ordinals = append(ordinals, `\d{1,2}(?:º|°|er|do|ro|to|vo|mo|no)?`)
	e.semester = regexp.MustCompile(`(?i)(?:^|[^\p{L}\d])((?:` + strings.Join(ordinals, "|") + `)\s+SEMESTRE\s+\d{4})`)

	e.chains = []chain{
		{carnet.FieldDocument, []strategy{e.label(carnet.FieldDocument), e.bareDocument}},
		{carnet.FieldName, []strategy{e.label(carnet.FieldName), e.nameNearDocument, e.capitalizedPhrase}},
		{carnet.FieldCareer, []strategy{e.label(carnet.FieldCareer), e.careerKeyword}},
		{carnet.FieldEmail, []strategy{e.label(carnet.FieldEmail), bareEmail}},
		{carnet.FieldPeriod, []strategy{e.semesterPeriod, e.label(carnet.FieldPeriod), bareYear}},
		{carnet.FieldPhone, []strategy{e.label(carnet.FieldPhone), barePhone}},
	}

	return e, nil
}

// MustNew is like New but panics if rules fail to compile.
func MustNew(rules Rules) *Extractor {
	e, err := New(rules)
	if err != nil {
		panic(err)
	}
	return e
}

// NewExtractor returns an Extractor using DefaultRules.
func NewExtractor() *Extractor {
	return MustNew(DefaultRules())
}

// Extract returns the fields found in text. Fields are filled in a fixed
// order so later strategies can anchor on earlier results: the document
// first, then the name (which may sit right before the document), and the
// phone last so it can be told apart from the document.
func (e *Extractor) Extract(text string) carnet.Record {
	norm := e.Normalize(text)
	if norm == "" {
		return carnet.Record{}
	}

	var rec carnet.Record
	for _, c := range e.chains {
		for _, s := range c.strategies {
			if v := e.clean(c.field, s(norm, rec), rec); v != "" {
				rec = rec.With(c.field, v)
				break
			}
		}
	}

	return e.Sanitize(rec)
}

// NeedsRender reports whether text is empty or shorter than the configured
// minimum, in which case the page likely renders its content client-side.
func (e *Extractor) NeedsRender(text string) bool {
	return utf8.RuneCountInString(collapse(text)) < e.minTextLength
}

// label returns a strategy trying the label patterns of field f.
func (e *Extractor) label(f carnet.Field) strategy {
	return func(text string, _ carnet.Record) string {
		v, _ := e.ExtractByLabel(text, f)
		return v
	}
}
