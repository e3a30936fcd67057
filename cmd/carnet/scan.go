package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fwojciec/carnet"
)

// maxPayloadSize bounds a single decoded payload line.
const maxPayloadSize = 1 << 20

// Run executes the scan command. Each stdin line is one decoded QR payload.
// Resolution failures are reported and skipped; storage failures stop the
// session. Cancelling the context ends the session without error.
func (c *ScanCmd) Run(deps *Dependencies) error {
	lines, readErr := readLines(deps.Ctx, deps.Stdin)

	var last string
	var lastAt time.Time

	fmt.Fprintln(deps.Stdout, "Estado: listo")
	for {
		var text string
		var ok bool
		select {
		case <-deps.Ctx.Done():
			fmt.Fprintln(deps.Stdout, "Estado: detenido")
			return nil
		case text, ok = <-lines:
		}
		if !ok {
			break
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		// An identical payload is ignored until the window that started
		// with its first sighting has passed.
		now := deps.now()
		if text == last && now.Sub(lastAt) < c.Debounce {
			continue
		}
		last, lastAt = text, now

		if u, isURL := carnet.Payload(text).URL(); isURL {
			seen, err := deps.Scans.HasURL(deps.Ctx, u)
			if err != nil {
				fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
				return err
			}
			if seen {
				fmt.Fprintln(deps.Stdout, "Estado: duplicado (ya registrado)")
				continue
			}
		}

		if err := c.record(deps, text); err != nil {
			return err
		}
	}

	if err := <-readErr; err != nil {
		fmt.Fprintf(deps.Stderr, "error: %v\n", err)
		return err
	}
	fmt.Fprintln(deps.Stdout, "Estado: detenido")
	return nil
}

// record resolves and stores one payload. It returns an error only when
// the scan cannot be stored.
func (c *ScanCmd) record(deps *Dependencies, text string) error {
	fmt.Fprintln(deps.Stdout, "Estado: consultando...")

	ctx, cancel := context.WithTimeout(deps.Ctx, c.Timeout)
	res, err := deps.Resolver.Resolve(ctx, carnet.Payload(text))
	cancel()
	if err != nil {
		if deps.Ctx.Err() != nil {
			fmt.Fprintln(deps.Stdout, "Estado: cancelado")
			return nil
		}
		fmt.Fprintf(deps.Stdout, "Estado: error al resolver (%s)\n", carnet.ErrorMessage(err))
		return nil
	}

	scan := &carnet.Scan{
		Payload:   text,
		URL:       res.URL,
		Record:    res.Record,
		ScannedAt: deps.now(),
	}
	if err := deps.Scans.CreateScan(deps.Ctx, scan); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", carnet.ErrorMessage(err))
		return err
	}

	status := "Registro agregado"
	if scan.Record.Name == "" && scan.URL == "" {
		status = "Registro agregado (sin datos)"
	}
	fmt.Fprintf(deps.Stdout, "#%d %s\nEstado: %s\n", scan.Index, scan.DisplayName(), status)
	return nil
}

// readLines streams stdin lines until EOF or cancellation. The error
// channel receives the scanner error, if any, after lines is closed.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(lines)

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxPayloadSize)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	return lines, errc
}
