// Package slog decorates carnet services with structured logging.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/carnet"
)

// Ensure LoggingFetcher implements carnet.Fetcher.
var _ carnet.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging. Each fetch is logged with
// the fetcher's source name so direct and rendered fetches can be told
// apart.
type LoggingFetcher struct {
	next   carnet.Fetcher
	source string
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next carnet.Fetcher, source string, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, source: source, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"source", f.source,
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
