package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/carnet"
	"github.com/google/uuid"
)

// storageTimeLayout keeps sub-second precision so scans made within the
// same second still sort and round-trip exactly.
const storageTimeLayout = time.RFC3339Nano

// Compile-time interface verification.
var _ carnet.ScanService = (*ScanService)(nil)

// ScanService implements carnet.ScanService using SQLite.
type ScanService struct {
	db *DB
}

// NewScanService creates a new ScanService.
func NewScanService(db *DB) *ScanService {
	return &ScanService{db: db}
}

// CreateScan stores scan as the next row of the session. ScannedAt is kept
// when already set so imported rows retain their original time.
func (s *ScanService) CreateScan(ctx context.Context, scan *carnet.Scan) error {
	if err := scan.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var index int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(idx), 0) + 1 FROM scans`).Scan(&index); err != nil {
		return fmt.Errorf("next scan index: %w", err)
	}

	scan.ID = uuid.New().String()
	scan.Index = index
	if scan.ScannedAt.IsZero() {
		scan.ScannedAt = time.Now()
	}
	scan.ScannedAt = scan.ScannedAt.UTC()

	r := scan.Record
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO scans (id, idx, payload, url, url_hash, name, document, career, email, phone, period, scanned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, scan.ID, scan.Index, scan.Payload, scan.URL, hashURL(scan.URL),
		r.Name, r.Document, r.Career, r.Email, r.Phone, r.Period,
		scan.ScannedAt.Format(storageTimeLayout)); err != nil {
		return err
	}

	return tx.Commit()
}

// FindScans retrieves scans matching the filter ordered by index.
func (s *ScanService) FindScans(ctx context.Context, filter carnet.ScanFilter) ([]*carnet.Scan, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, idx, payload, url, name, document, career, email, phone, period, scanned_at FROM scans WHERE 1=1`)

	if filter.URL != nil {
		query.WriteString(" AND url_hash = ? AND url = ?")
		args = append(args, hashURL(*filter.URL), *filter.URL)
	}

	query.WriteString(" ORDER BY idx ASC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scans []*carnet.Scan
	for rows.Next() {
		var scan carnet.Scan
		var scannedAt string
		r := &scan.Record

		if err := rows.Scan(&scan.ID, &scan.Index, &scan.Payload, &scan.URL,
			&r.Name, &r.Document, &r.Career, &r.Email, &r.Phone, &r.Period, &scannedAt); err != nil {
			return nil, err
		}

		if scan.ScannedAt, err = parseTime(scannedAt, "scanned_at"); err != nil {
			return nil, err
		}

		scans = append(scans, &scan)
	}

	return scans, rows.Err()
}

// HasURL reports whether a scan for url was already stored. The empty URL
// is never considered seen.
func (s *ScanService) HasURL(ctx context.Context, url string) (bool, error) {
	if url == "" {
		return false, nil
	}

	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM scans WHERE url_hash = ? AND url = ? LIMIT 1
	`, hashURL(url), url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeleteScans removes every scan. The next scan created starts again at
// index 1.
func (s *ScanService) DeleteScans(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM scans`)
	return err
}
