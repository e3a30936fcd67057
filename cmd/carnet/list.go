package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/carnet"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	scans, err := deps.Scans.FindScans(deps.Ctx, carnet.ScanFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	if c.JSON {
		if scans == nil {
			scans = []*carnet.Scan{}
		}
		enc := json.NewEncoder(deps.Stdout)
		enc.SetEscapeHTML(false)
		return enc.Encode(scans)
	}

	if len(scans) == 0 {
		fmt.Fprintln(deps.Stdout, "No scans recorded. Use 'carnet scan' to start a session.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tHORA\tNOMBRE\tDOCUMENTO\tCARRERA\tPERIODO")
	for _, s := range scans {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Index, s.ScannedAt.Local().Format("15:04:05"), s.DisplayName(),
			s.Record.Document, s.Record.Career, s.Record.Period)
	}
	return tw.Flush()
}
