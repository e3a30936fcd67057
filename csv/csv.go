// Package csv exports session scans as spreadsheet-friendly CSV and reads
// such exports back.
//
// Exports start with a UTF-8 byte order mark, quote every field, and use a
// semicolon separator with CRLF row breaks by default, which is what Excel
// expects in Spanish locales.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/carnet"
)

// Export layout.
const (
	DefaultComma = ';'
	DateLayout   = "02/01/2006"
	TimeLayout   = "15:04:05"
	bom          = "\ufeff"
)

// Header is the column header row of an export.
var Header = []string{"#", "Fecha", "Hora", "Nombre", "Documento", "Carrera", "Correo", "Celular", "Periodo inscrito"}

// Filename returns the default export filename for t, "Lista (DD-MM-YYYY).csv".
func Filename(t time.Time) string {
	return "Lista (" + t.Format("02-01-2006") + ").csv"
}

// Writer writes scans as CSV rows.
type Writer struct {
	// Comma is the field separator. Defaults to DefaultComma.
	Comma rune

	// UseCRLF separates rows with \r\n when true and \n otherwise.
	UseCRLF bool

	// Location is the time zone for the date and time columns.
	Location *time.Location

	w    *bufio.Writer
	rows int
}

// NewWriter returns a Writer with the default export layout.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		Comma:    DefaultComma,
		UseCRLF:  true,
		Location: time.Local,
		w:        bufio.NewWriter(w),
	}
}

// Write writes the byte order mark and header before the first row, then
// one row for scan. Call Flush when done.
func (w *Writer) Write(scan *carnet.Scan) error {
	if w.rows == 0 {
		if _, err := w.w.WriteString(bom); err != nil {
			return err
		}
		if err := w.writeRow(Header); err != nil {
			return err
		}
	}
	return w.writeRow(w.fields(scan))
}

// WriteAll writes every scan and flushes.
func (w *Writer) WriteAll(scans []*carnet.Scan) error {
	for _, s := range scans {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

func (w *Writer) fields(scan *carnet.Scan) []string {
	at := scan.ScannedAt
	if w.Location != nil {
		at = at.In(w.Location)
	}
	var date, clock string
	if !scan.ScannedAt.IsZero() {
		date, clock = at.Format(DateLayout), at.Format(TimeLayout)
	}
	return []string{
		strconv.Itoa(scan.Index),
		date,
		clock,
		scan.DisplayName(),
		scan.Record.Document,
		scan.Record.Career,
		scan.Record.Email,
		scan.Record.Phone,
		scan.Record.Period,
	}
}

// writeRow writes fields quoted, preceded by a row break unless it is the
// first row.
func (w *Writer) writeRow(fields []string) error {
	if w.rows > 0 {
		sep := "\n"
		if w.UseCRLF {
			sep = "\r\n"
		}
		if _, err := w.w.WriteString(sep); err != nil {
			return err
		}
	}
	for i, f := range fields {
		if i > 0 {
			if _, err := w.w.WriteRune(w.Comma); err != nil {
				return err
			}
		}
		if _, err := w.w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	w.rows++
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ReadAll reads an export written by Writer. Scan IDs, URLs, and payloads
// are not part of the export and are left empty; the name column is read
// into Record.Name.
func ReadAll(r io.Reader, comma rune, loc *time.Location) ([]*carnet.Scan, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && bytes.Equal(b, []byte(bom)) {
		_, _ = br.Discard(len(bom))
	}
	if loc == nil {
		loc = time.Local
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	} else if err != nil {
		return nil, carnet.Errorf(carnet.EINVALID, "read header: %v", err)
	}
	if header[0] != Header[0] {
		return nil, carnet.Errorf(carnet.EINVALID, "unexpected header %q", header)
	}

	var scans []*carnet.Scan
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, carnet.Errorf(carnet.EINVALID, "read row: %v", err)
		}
		scan, err := parseRow(row, loc)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return scans, nil
}

func parseRow(row []string, loc *time.Location) (*carnet.Scan, error) {
	idx, err := strconv.Atoi(row[0])
	if err != nil {
		return nil, carnet.Errorf(carnet.EINVALID, "invalid index %q", row[0])
	}
	scan := &carnet.Scan{
		Index: idx,
		Record: carnet.Record{
			Name:     row[3],
			Document: row[4],
			Career:   row[5],
			Email:    row[6],
			Phone:    row[7],
			Period:   row[8],
		},
	}
	if row[1] != "" {
		at, err := time.ParseInLocation(DateLayout+" "+TimeLayout, row[1]+" "+row[2], loc)
		if err != nil {
			return nil, carnet.Errorf(carnet.EINVALID, "invalid timestamp %q %q: %v", row[1], row[2], err)
		}
		scan.ScannedAt = at
	}
	return scan, nil
}
