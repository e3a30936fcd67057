package mock

import (
	"context"

	"github.com/fwojciec/carnet"
)

var _ carnet.ScanService = (*ScanService)(nil)

// ScanService is a mock implementation of carnet.ScanService.
type ScanService struct {
	CreateScanFn  func(ctx context.Context, scan *carnet.Scan) error
	FindScansFn   func(ctx context.Context, filter carnet.ScanFilter) ([]*carnet.Scan, error)
	HasURLFn      func(ctx context.Context, url string) (bool, error)
	DeleteScansFn func(ctx context.Context) error
}

func (s *ScanService) CreateScan(ctx context.Context, scan *carnet.Scan) error {
	return s.CreateScanFn(ctx, scan)
}

func (s *ScanService) FindScans(ctx context.Context, filter carnet.ScanFilter) ([]*carnet.Scan, error) {
	return s.FindScansFn(ctx, filter)
}

func (s *ScanService) HasURL(ctx context.Context, url string) (bool, error) {
	return s.HasURLFn(ctx, url)
}

func (s *ScanService) DeleteScans(ctx context.Context) error {
	return s.DeleteScansFn(ctx)
}
