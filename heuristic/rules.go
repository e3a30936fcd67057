// Package heuristic extracts personal fields from the flattened text of an
// identity-card page.
//
// Extraction is an ordered chain of strategies per field: an explicit label
// ("Nombre:", "Carrera:") first, then bare patterns, then positional guesses
// relative to fields already found. The vocabulary driving those strategies
// (noise tokens, labels, denylists, thresholds) is data in Rules and was
// tuned against a single card layout; other layouts need their own Rules.
package heuristic

import (
	"os"

	"github.com/fwojciec/carnet"
	yaml "gopkg.in/yaml.v3"
)

// Default tuning constants.
const (
	DefaultNameWindow    = 200
	DefaultMinTextLength = 50
)

// Replacement is a noise pattern removed during normalization.
type Replacement struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

// Rules is the data driving extraction.
type Rules struct {
	// Noise is applied in order during normalization. An empty Replacement
	// is treated as a single space.
	Noise []Replacement `yaml:"noise"`

	// Labels holds, per field, label patterns tried most specific first.
	// Patterns match case-insensitively and must not contain capture groups.
	Labels map[carnet.Field][]string `yaml:"labels"`

	// StopLabels are label words that end a captured name, career, or
	// period value ("JUAN PEREZ Carrera" stops before "Carrera").
	StopLabels []string `yaml:"stopLabels"`

	// NameDenylist holds case-insensitive keywords that disqualify a name
	// candidate. Academic and institution words are typical.
	NameDenylist []string `yaml:"nameDenylist"`

	// CareerKeywords are patterns that anchor a career when no label exists.
	CareerKeywords []string `yaml:"careerKeywords"`

	// CareerStops are patterns at which a career value is truncated. They
	// cover tokens that run on after the career with no separator.
	CareerStops []string `yaml:"careerStops"`

	// Ordinals are the ordinal words accepted before SEMESTRE.
	Ordinals []string `yaml:"ordinals"`

	// NameWindow is the number of characters before the document number
	// searched for a name.
	NameWindow int `yaml:"nameWindow"`

	// MinTextLength is the text length under which a page is assumed to be
	// rendered client-side.
	MinTextLength int `yaml:"minTextLength"`
}

// DefaultRules returns rules tuned for the Universidad Católica Boliviana
// student card page.
func DefaultRules() Rules {
	return Rules{
		Noise: []Replacement{
			{Pattern: `(?i)fingerprint`},
			{Pattern: `(?i)Documento\s+de\s+Identidad:?`},
			{Pattern: `(?i)Documento:?`},
			{Pattern: `(?i)\bCI\b:?`},
			{Pattern: `(?i)\bschool\b`},
			{Pattern: `(?i)eventFecha`},
			{Pattern: `(?i)Fecha\s+de\s+Inic[a-z]*`},
			{Pattern: `(?i)CARNET\s+UNIVERSITARIO`},
			{Pattern: `(?i)UNIVERSIDAD\s+CAT[ÓO]LICA\s+BOLIVIANA`},
			{Pattern: `(?i)\bUNIVERSIDAD\b`},
			{Pattern: `(?i)\bCARN(?:ET|[ÉE])(?:[^\p{L}\p{N}]|$)`},
		},
		Labels: map[carnet.Field][]string{
			carnet.FieldName:     {`Nombre\s+Completo`, `Nombre`},
			carnet.FieldDocument: {`Documento\s+de\s+Identidad`, `Documento`, `C\.?I\.?`},
			carnet.FieldCareer:   {`Carrera`},
			carnet.FieldEmail:    {`Correo(?:\s+Electr[oó]nico)?`, `E-?mail`},
			carnet.FieldPhone:    {`Celular`, `Tel[eé]fono`},
			carnet.FieldPeriod:   {`Per[ií]odo(?:\s+Acad[eé]mico)?`},
		},
		StopLabels: []string{
			"nombre", "completo", "documento", "ci", "carrera", "correo",
			"email", "e-mail", "celular", "teléfono", "telefono",
			"periodo", "período", "fecha",
		},
		NameDenylist: []string{
			"SEMESTRE", "INGENIER", "LICENCIAT", "MEDICIN", "DERECHO",
			"TECNOLOG", "UNIVERSIDAD", "CARNET", "SCHOOL",
		},
		CareerKeywords: []string{
			`INGENIER[IÍ]A`, `TECNOLOG[IÍ]A`, `LICENCIATURA`, `DERECHO`,
			`MEDICINA`, `ADMINISTRACI[OÓ]N`, `SISTEMAS`, `COMPUTACI[OÓ]N`,
			`ECONOM[IÍ]A`, `ARQUITECTURA`,
		},
		CareerStops: []string{
			`(?i)school`,
			`(?i)Per[ií]odo`,
			`(?i)Acad[eé]mico`,
			`(?i)\b(?:PRIMER[OA]?|SEGUND[OA]|TERCER[OA]?|CUART[OA]|QUINT[OA]|SEXT[OA]|S[EÉ]PTIM[OA]|OCTAV[OA]|NOVEN[OA]|D[EÉ]CIM[OA]|\d{1,2}\S*)\s+SEMESTRE`,
			`(?i)SEMESTRE`,
			`(?i)UNIVERSIDAD`,
			`(?i)CARNET`,
		},
		Ordinals: []string{
			"PRIMERO", "PRIMER", "SEGUNDO", "TERCERO", "TERCER", "CUARTO",
			"QUINTO", "SEXTO", "SEPTIMO", "SÉPTIMO", "OCTAVO", "NOVENO",
			"DECIMO", "DÉCIMO",
		},
		NameWindow:    DefaultNameWindow,
		MinTextLength: DefaultMinTextLength,
	}
}

// LoadRules reads a YAML rules file and overlays it on DefaultRules.
// Keys absent from the file keep their default values; lists present in the
// file replace the default list entirely. Label entries replace the labels
// of the fields they name and leave other fields alone.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	b, err := os.ReadFile(path)
	if err != nil {
		return rules, err
	}
	if err := yaml.Unmarshal(b, &rules); err != nil {
		return rules, carnet.Errorf(carnet.EINVALID, "parse rules %s: %v", path, err)
	}
	return rules, nil
}

// Validate returns an error if the rules cannot drive extraction.
func (r Rules) Validate() error {
	if r.NameWindow <= 0 {
		return carnet.Errorf(carnet.EINVALID, "name window must be positive, got %d", r.NameWindow)
	}
	if r.MinTextLength < 0 {
		return carnet.Errorf(carnet.EINVALID, "min text length must not be negative, got %d", r.MinTextLength)
	}
	for f := range r.Labels {
		if !isField(f) {
			return carnet.Errorf(carnet.EINVALID, "labels: unknown field %q", f)
		}
	}
	return nil
}

func isField(f carnet.Field) bool {
	for _, known := range carnet.Fields {
		if f == known {
			return true
		}
	}
	return false
}

func compileError(kind, pattern string, err error) error {
	return carnet.Errorf(carnet.EINVALID, "%s pattern %q: %v", kind, pattern, err)
}
