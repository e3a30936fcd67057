package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/carnet"
	"github.com/fwojciec/carnet/bloom"
	"github.com/fwojciec/carnet/goquery"
	"github.com/fwojciec/carnet/heuristic"
	carnethttp "github.com/fwojciec/carnet/http"
	carnetprom "github.com/fwojciec/carnet/prometheus"
	"github.com/fwojciec/carnet/resolve"
	"github.com/fwojciec/carnet/rod"
	carnetslog "github.com/fwojciec/carnet/slog"
	"github.com/fwojciec/carnet/sqlite"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	err := m.Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path used when --db is not given. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing. A non-nil Resolver replaces the one
	// built from flags.
	Scans    carnet.ScanService
	Resolver carnet.Resolver

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
		m.DB = nil
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("carnet"),
		kong.Description("Resolve scanned student-card QR codes into records."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Vars{"default_allowed_hosts": strings.Join(carnethttp.DefaultAllowedHosts, ",")},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'carnet --help' to see available commands")
	}

	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	defer m.Close()

	cmd := strings.Fields(kongCtx.Command())[0]

	if usesStore(cmd) {
		if m.Scans == nil {
			path := cli.DB
			if path == "" {
				path = m.DBPath
			}
			m.DB = sqlite.NewDB(path)
			if err := m.DB.Open(); err != nil {
				fmt.Fprintf(stderr, "Hint: Set CARNET_DB to use a different database path\n")
				return fmt.Errorf("failed to open database at %q: %w", path, err)
			}
			scans, err := bloom.NewScanService(ctx, sqlite.NewScanService(m.DB),
				bloom.NewFilter(bloom.DefaultCapacity, bloom.DefaultFalsePositiveRate))
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			m.Scans = carnetslog.NewLoggingScanService(scans, deps.Logger)
		}
		deps.Scans = m.Scans
	}

	if cmd == "serve" {
		deps.Allowlist, err = carnethttp.NewAllowlist(cli.Serve.AllowedHosts)
		if err != nil {
			return err
		}
		deps.Metrics = carnetprom.NewMetrics()
	}

	if usesResolver(cmd) {
		if m.Resolver == nil {
			if err := m.buildResolver(cli, deps); err != nil {
				return err
			}
		}
		deps.Resolver = m.Resolver
	}

	return kongCtx.Run(deps)
}

func usesStore(cmd string) bool {
	switch cmd {
	case "scan", "list", "export", "import", "clear":
		return true
	}
	return false
}

func usesResolver(cmd string) bool {
	switch cmd {
	case "serve", "resolve", "scan":
		return true
	}
	return false
}

// buildResolver wires the fetchers, extractors, and decorators into the
// resolver used by the serve, resolve, and scan commands.
func (m *Main) buildResolver(cli *CLI, deps *Dependencies) error {
	logger := deps.Logger

	rules := heuristic.DefaultRules()
	if cli.Rules != "" {
		var err error
		rules, err = heuristic.LoadRules(cli.Rules)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "Hint: Unset CARNET_RULES to use the built-in extraction rules\n")
			return fmt.Errorf("failed to load rules: %w", err)
		}
	}
	fields, err := heuristic.New(rules)
	if err != nil {
		return fmt.Errorf("invalid rules: %w", err)
	}

	direct := carnetslog.NewLoggingFetcher(carnethttp.NewFetcher(carnethttp.WithTimeout(cli.FetchTimeout)), "direct", logger)
	m.closers = append(m.closers, direct)

	var renderer carnet.Fetcher
	if cli.Render {
		rf, err := rod.NewFetcher(rod.WithManagerOptions(rod.WithNoSandbox(cli.NoSandbox)))
		if err != nil {
			fmt.Fprintln(deps.Stderr, "Hint: Chrome or Chromium must be installed to render client-side pages. Use --no-render to silence this.")
			logger.Warn("headless renderer unavailable", "error", err)
		} else {
			lf := carnetslog.NewLoggingFetcher(rf, "render", logger)
			m.closers = append(m.closers, lf)
			renderer = lf
		}
	}

	var resolver carnet.Resolver = &resolve.Resolver{
		Direct:   direct,
		Renderer: renderer,
		Text:     goquery.NewTextExtractor(),
		Fields:   fields,
		Limiter:  resolve.NewDomainLimiter(cli.Rate, 1),
	}
	if deps.Metrics != nil {
		resolver = carnetprom.NewResolver(resolver, deps.Metrics)
	}
	m.Resolver = carnetslog.NewLoggingResolver(resolver, logger)

	return nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "carnet.db"
	}
	dir := filepath.Join(home, ".carnet")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "carnet.db")
}
