package slog

import (
	"context"
	"log/slog"

	"github.com/fwojciec/carnet"
)

// Ensure LoggingScanService implements carnet.ScanService.
var _ carnet.ScanService = (*LoggingScanService)(nil)

// LoggingScanService wraps a ScanService and logs writes at debug level.
type LoggingScanService struct {
	carnet.ScanService
	logger *slog.Logger
}

// NewLoggingScanService creates a new LoggingScanService.
func NewLoggingScanService(next carnet.ScanService, logger *slog.Logger) *LoggingScanService {
	return &LoggingScanService{ScanService: next, logger: logger}
}

// CreateScan delegates to the wrapped service and logs the stored scan.
func (s *LoggingScanService) CreateScan(ctx context.Context, scan *carnet.Scan) (err error) {
	defer func() {
		s.logger.Debug("create scan",
			"index", scan.Index,
			"url", scan.URL,
			"fields", scan.Record.Filled(),
			"err", err,
		)
	}()
	return s.ScanService.CreateScan(ctx, scan)
}

// DeleteScans delegates to the wrapped service and logs the reset.
func (s *LoggingScanService) DeleteScans(ctx context.Context) (err error) {
	defer func() {
		s.logger.Debug("delete scans", "err", err)
	}()
	return s.ScanService.DeleteScans(ctx)
}
