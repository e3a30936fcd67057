package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/carnet"
)

// Ensure LoggingResolver implements carnet.Resolver.
var _ carnet.Resolver = (*LoggingResolver)(nil)

// LoggingResolver wraps a Resolver with logging.
type LoggingResolver struct {
	next   carnet.Resolver
	logger *slog.Logger
}

// NewLoggingResolver creates a new LoggingResolver.
func NewLoggingResolver(next carnet.Resolver, logger *slog.Logger) *LoggingResolver {
	return &LoggingResolver{next: next, logger: logger}
}

// Resolve delegates to the wrapped resolver and logs how the record was
// obtained. Render failures are logged as warnings since they do not fail
// the resolution.
func (r *LoggingResolver) Resolve(ctx context.Context, payload carnet.Payload) (res *carnet.Resolution, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin)}
		if res != nil {
			attrs = append(attrs,
				"url", res.URL,
				"fields", res.Record.Filled(),
				"rendered", res.Diagnostics.RenderedMerged,
			)
			if res.Diagnostics.RenderError != "" {
				r.logger.Warn("render fallback failed", "url", res.URL, "err", res.Diagnostics.RenderError)
			}
		}
		if err != nil {
			attrs = append(attrs, "err", err)
			r.logger.Error("resolve", attrs...)
			return
		}
		r.logger.Info("resolve", attrs...)
	}(time.Now())
	return r.next.Resolve(ctx, payload)
}
