package carnet

import "strings"

// Field identifies one of the personal fields extracted from a card page.
type Field string

// Field constants in the order they appear in exports.
const (
	FieldName     Field = "name"
	FieldDocument Field = "document"
	FieldCareer   Field = "career"
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldPeriod   Field = "period"
)

// Fields lists every Field in export order.
var Fields = []Field{
	FieldName,
	FieldDocument,
	FieldCareer,
	FieldEmail,
	FieldPhone,
	FieldPeriod,
}

// Record holds the personal fields extracted from one card page.
// An empty string means the field was not found.
type Record struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Career   string `json:"career"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Period   string `json:"period"`
}

// Get returns the value of field f.
func (r Record) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldDocument:
		return r.Document
	case FieldCareer:
		return r.Career
	case FieldEmail:
		return r.Email
	case FieldPhone:
		return r.Phone
	case FieldPeriod:
		return r.Period
	}
	return ""
}

// With returns a copy of r with field f set to value.
func (r Record) With(f Field, value string) Record {
	switch f {
	case FieldName:
		r.Name = value
	case FieldDocument:
		r.Document = value
	case FieldCareer:
		r.Career = value
	case FieldEmail:
		r.Email = value
	case FieldPhone:
		r.Phone = value
	case FieldPeriod:
		r.Period = value
	}
	return r
}

// Merge returns a record holding the values of r overridden by every
// non-empty value of other. A phone whose digits equal the merged document
// is dropped, as it is when extracting a single record.
func (r Record) Merge(other Record) Record {
	for _, f := range Fields {
		if v := other.Get(f); v != "" {
			r = r.With(f, v)
		}
	}
	if r.Phone != "" && strings.TrimPrefix(r.Phone, "+") == r.Document {
		r.Phone = ""
	}
	return r
}

// Filled returns the number of non-empty fields.
func (r Record) Filled() int {
	var n int
	for _, f := range Fields {
		if r.Get(f) != "" {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no field was found.
func (r Record) IsEmpty() bool {
	return r.Filled() == 0
}
