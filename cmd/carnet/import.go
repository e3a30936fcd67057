package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/carnet"
	"github.com/fwojciec/carnet/csv"
)

// Run executes the import command. Imported rows are appended after the
// existing scans and keep their original scan time. The export holds no
// payload column, so the name column stands in for it; rows with no name
// are skipped.
func (c *ImportCmd) Run(deps *Dependencies) error {
	comma, err := parseSeparator(c.Separator)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	defer f.Close()

	scans, err := csv.ReadAll(f, comma, time.Local)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	var imported, skipped int
	for _, s := range scans {
		s.Payload = s.Record.Name
		if s.Payload == "" {
			skipped++
			continue
		}
		if err := deps.Scans.CreateScan(deps.Ctx, s); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
			return err
		}
		imported++
	}

	fmt.Fprintf(deps.Stdout, "Imported %d scans from %q\n", imported, c.File)
	if skipped > 0 {
		fmt.Fprintf(deps.Stderr, "skipped %d rows without a name\n", skipped)
	}
	return nil
}
