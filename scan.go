package carnet

import (
	"context"
	"time"
)

// Scan is one row of a scanning session: a resolved payload with the time
// it was scanned and its position in the session.
type Scan struct {
	ID        string    `json:"id"`
	Index     int       `json:"index"`
	Payload   string    `json:"payload"`
	URL       string    `json:"url"`
	Record    Record    `json:"record"`
	ScannedAt time.Time `json:"scannedAt"`
}

// Validate returns an error if the scan contains invalid fields.
func (s *Scan) Validate() error {
	if s.Payload == "" {
		return Errorf(EINVALID, "scan payload required")
	}
	return nil
}

// DisplayName returns the extracted name, falling back to the raw payload
// when no name was found.
func (s *Scan) DisplayName() string {
	if s.Record.Name != "" {
		return s.Record.Name
	}
	return s.Payload
}

// ScanFilter represents a filter for FindScans.
type ScanFilter struct {
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ScanService represents a service for managing session scans.
type ScanService interface {
	// CreateScan stores a new scan, assigning its ID, Index, and ScannedAt.
	CreateScan(ctx context.Context, scan *Scan) error

	// FindScans retrieves scans matching the filter ordered by Index.
	FindScans(ctx context.Context, filter ScanFilter) ([]*Scan, error)

	// HasURL reports whether a scan for url was already stored.
	HasURL(ctx context.Context, url string) (bool, error)

	// DeleteScans removes every scan and resets the session index.
	DeleteScans(ctx context.Context) error
}
