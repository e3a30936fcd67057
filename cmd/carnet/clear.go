package main

import (
	"fmt"

	"github.com/fwojciec/carnet"
)

// Run executes the clear command.
func (c *ClearCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return carnet.Errorf(carnet.EINVALID, "use --force to confirm deletion")
	}

	if err := deps.Scans.DeleteScans(deps.Ctx); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	fmt.Fprintln(deps.Stdout, "Estado: limpiado")
	return nil
}
