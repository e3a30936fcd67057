// Package bloom keeps an in-memory Bloom filter of the URLs recorded in a
// scan session.
package bloom

import (
	"context"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/carnet"
)

// Default sizing for a session filter.
const (
	DefaultCapacity          = 10000
	DefaultFalsePositiveRate = 0.001
)

// Filter is a concurrency-safe Bloom filter of URLs.
type Filter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected items
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add adds a URL to the filter.
func (f *Filter) Add(url string) {
	f.mu.Lock()
	f.f.AddString(url)
	f.mu.Unlock()
}

// Test returns true if the URL might be in the filter.
// False positives are possible; false negatives are not.
func (f *Filter) Test(url string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.f.TestString(url)
}

// Reset removes every URL from the filter.
func (f *Filter) Reset() {
	f.mu.Lock()
	f.f.ClearAll()
	f.mu.Unlock()
}

// EstimatedCount returns the approximate number of items in the filter.
func (f *Filter) EstimatedCount() uint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return uint(f.f.ApproximatedSize())
}

// Ensure ScanService implements carnet.ScanService at compile time.
var _ carnet.ScanService = (*ScanService)(nil)

// ScanService wraps a ScanService so HasURL answers misses from memory.
// Only a possible hit reaches the wrapped service, which settles it.
type ScanService struct {
	carnet.ScanService
	filter *Filter
}

// NewScanService returns a ScanService whose filter is seeded with the URLs
// already stored in next.
func NewScanService(ctx context.Context, next carnet.ScanService, filter *Filter) (*ScanService, error) {
	scans, err := next.FindScans(ctx, carnet.ScanFilter{})
	if err != nil {
		return nil, err
	}
	for _, s := range scans {
		if s.URL != "" {
			filter.Add(s.URL)
		}
	}
	return &ScanService{ScanService: next, filter: filter}, nil
}

// CreateScan stores scan and records its URL in the filter.
func (s *ScanService) CreateScan(ctx context.Context, scan *carnet.Scan) error {
	if err := s.ScanService.CreateScan(ctx, scan); err != nil {
		return err
	}
	if scan.URL != "" {
		s.filter.Add(scan.URL)
	}
	return nil
}

// HasURL reports false without querying the wrapped service when the filter
// has never seen url.
func (s *ScanService) HasURL(ctx context.Context, url string) (bool, error) {
	if url == "" || !s.filter.Test(url) {
		return false, nil
	}
	return s.ScanService.HasURL(ctx, url)
}

// DeleteScans deletes every scan and clears the filter.
func (s *ScanService) DeleteScans(ctx context.Context) error {
	if err := s.ScanService.DeleteScans(ctx); err != nil {
		return err
	}
	s.filter.Reset()
	return nil
}
