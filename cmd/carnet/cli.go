package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/carnet"
	carnethttp "github.com/fwojciec/carnet/http"
	carnetprom "github.com/fwojciec/carnet/prometheus"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx       context.Context
	Stdin     io.Reader
	Stdout    io.Writer
	Stderr    io.Writer
	Logger    *slog.Logger
	Now       func() time.Time
	Scans     carnet.ScanService
	Resolver  carnet.Resolver
	Allowlist *carnethttp.Allowlist
	Metrics   *carnetprom.Metrics
}

// now returns the current time from deps.Now, defaulting to time.Now.
func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB      string `name:"db" env:"CARNET_DB" help:"Path to the session database"`
	Rules   string `name:"rules" env:"CARNET_RULES" help:"YAML file overriding the extraction rules"`
	Verbose bool   `short:"v" help:"Log debug output to stderr"`

	Render       bool          `default:"true" negatable:"" env:"CARNET_RENDER" help:"Render client-side pages with headless Chrome when the fetched text is too short"`
	NoSandbox    bool          `name:"no-sandbox" env:"CARNET_NO_SANDBOX" help:"Launch Chrome without its sandbox (containers)"`
	FetchTimeout time.Duration `default:"10s" help:"Timeout for a direct page fetch"`
	Rate         float64       `default:"2" help:"Maximum fetches per second per host (0 disables)"`

	Serve   ServeCmd   `cmd:"" help:"Run the HTTP proxy that resolves card URLs"`
	Resolve ResolveCmd `cmd:"" help:"Resolve a single payload and print the record as JSON"`
	Scan    ScanCmd    `cmd:"" help:"Read decoded QR payloads from stdin and record them"`
	List    ListCmd    `cmd:"" help:"List the scans of the current session"`
	Export  ExportCmd  `cmd:"" help:"Export the session as CSV"`
	Import  ImportCmd  `cmd:"" help:"Append scans from a previously exported CSV file"`
	Clear   ClearCmd   `cmd:"" help:"Delete every scan of the current session"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Port           int           `default:"9000" env:"PORT" help:"Port to listen on"`
	AllowedHosts   []string      `name:"allowed-hosts" env:"ALLOWED_HOSTS" sep:"," default:"${default_allowed_hosts}" help:"Hosts the proxy may fetch"`
	ResolveTimeout time.Duration `default:"60s" help:"Timeout for a whole resolution"`
}

// ResolveCmd is the "resolve" subcommand.
type ResolveCmd struct {
	Payload string `arg:"" help:"Decoded QR text, usually a card URL"`
	Debug   bool   `help:"Include fetch diagnostics in the output"`
}

// ScanCmd is the "scan" subcommand.
type ScanCmd struct {
	Debounce time.Duration `default:"800ms" help:"Ignore an identical payload repeated within this window"`
	Timeout  time.Duration `default:"60s" help:"Timeout for resolving one payload"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	JSON bool `help:"Print scans as JSON"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	Output    string `short:"o" help:"Output file (default: 'Lista (DD-MM-YYYY).csv'; '-' for stdout)"`
	Separator string `default:";" help:"Field separator"`
	LF        bool   `name:"lf" help:"Separate rows with LF instead of CRLF"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	File      string `arg:"" type:"existingfile" help:"CSV file written by export"`
	Separator string `default:";" help:"Field separator"`
}

// ClearCmd is the "clear" subcommand.
type ClearCmd struct {
	Force bool `help:"Confirm deletion"`
}
