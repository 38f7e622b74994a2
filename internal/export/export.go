// Package export writes a view of usage records to CSV or to a SQLite snapshot.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/db"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

// Default file names used when no output path is given.
const (
	DefaultCSVName      = "flags_usage_filtered.csv"
	DefaultSnapshotName = "flags_usage_snapshot.db"
)

// Format selects the export encoding.
type Format int

const (
	FormatCSV Format = iota
	FormatSQLite
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// DefaultName returns the file name used for f when none is given.
func (f Format) DefaultName() string {
	if f == FormatSQLite {
		return DefaultSnapshotName
	}
	return DefaultCSVName
}

// ParseFormat accepts "csv", "sqlite" or "db", ignoring case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	default:
		return FormatCSV, fmt.Errorf("unknown export format %q (want csv or sqlite)", s)
	}
}

var csvHeader = []string{"origin", "name", "sum"}

// WriteCSV writes records with an origin,name,sum header.
func WriteCSV(w io.Writer, records []models.UsageRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, r := range records {
		row := []string{r.Origin, r.Name, FormatSum(r.Sum)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatSum renders sum in its shortest exact decimal form without an exponent.
func FormatSum(sum float64) string {
	return strconv.FormatFloat(sum, 'f', -1, 64)
}

// CSVFile writes records to path, replacing any existing file.
func CSVFile(path string, records []models.UsageRecord) (err error) {
	if err := ensureParent(path); err != nil {
		return err
	}

	f, err := os.Create(path) // #nosec G304 -- path is chosen by the operator
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()

	return WriteCSV(f, records)
}

// SnapshotInfo describes where a snapshot came from.
type SnapshotInfo struct {
	SessionID string
	Source    string
	Filter    models.FilterCriteria
}

// SQLiteFile stores records in the flag_usage table of the database at path,
// replacing previous rows, and appends a snapshot_meta row.
func SQLiteFile(path string, records []models.UsageRecord, info SnapshotInfo) (*models.SnapshotMeta, error) {
	store, err := db.New(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	if err := store.ReplaceUsageRecords(records); err != nil {
		return nil, err
	}

	stats, err := store.GetUsageStats()
	if err != nil {
		return nil, err
	}
	if stats.TotalRecords != len(records) {
		return nil, fmt.Errorf("snapshot holds %d records, expected %d", stats.TotalRecords, len(records))
	}

	meta := &models.SnapshotMeta{
		SessionID:   info.SessionID,
		Source:      info.Source,
		Filter:      info.Filter.String(),
		RecordCount: stats.TotalRecords,
		TotalCalls:  stats.TotalCalls,
	}
	if err := store.InsertSnapshotMeta(meta); err != nil {
		return nil, err
	}
	// Replacing a larger snapshot leaves free pages behind.
	if err := store.Vacuum(); err != nil {
		return nil, fmt.Errorf("failed to compact snapshot: %w", err)
	}
	return meta, nil
}

// LatestSnapshot returns the newest snapshot_meta row of the snapshot at
// path. A missing file yields nil.
func LatestSnapshot(path string) (*models.SnapshotMeta, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	store, err := db.OpenExisting(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	return store.GetLatestSnapshotMeta()
}

// ToFile dispatches to CSVFile or SQLiteFile.
func ToFile(format Format, path string, records []models.UsageRecord, info SnapshotInfo) error {
	switch format {
	case FormatSQLite:
		_, err := SQLiteFile(path, records, info)
		return err
	default:
		return CSVFile(path, records)
	}
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}
