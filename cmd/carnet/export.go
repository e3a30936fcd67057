package main

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/fwojciec/carnet"
	"github.com/fwojciec/carnet/csv"
)

// Run executes the export command. An empty session writes no file.
func (c *ExportCmd) Run(deps *Dependencies) error {
	comma, err := parseSeparator(c.Separator)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	scans, err := deps.Scans.FindScans(deps.Ctx, carnet.ScanFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	if len(scans) == 0 {
		fmt.Fprintln(deps.Stdout, "Estado: no hay datos para exportar")
		return nil
	}

	var out io.Writer = deps.Stdout
	path := c.Output
	if path == "" {
		path = csv.Filename(deps.now())
	}
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	w.Comma = comma
	w.UseCRLF = !c.LF
	if err := w.WriteAll(scans); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}

	if path != "-" {
		fmt.Fprintf(deps.Stdout, "Estado: exportado (%d filas en %q)\n", len(scans), path)
	}
	return nil
}

// parseSeparator returns the single rune in s.
func parseSeparator(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if s == "" || size != len(s) || r == '"' || r == '\r' || r == '\n' {
		return 0, carnet.Errorf(carnet.EINVALID, "separator must be a single character other than quote or newline, got %q", s)
	}
	return r, nil
}
