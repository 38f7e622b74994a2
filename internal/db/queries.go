package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/j-veylop/flag-usage-dashboard-tui/internal/logger"
	"github.com/j-veylop/flag-usage-dashboard-tui/internal/models"
)

// RowError reports a flag_usage row that cannot be read as a usage record.
// Row is the zero-based position in rowid order.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: invalid %s: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

var errNullValue = errors.New("value is NULL")

// ReplaceUsageRecords replaces the contents of flag_usage with records,
// preserving their order.
func (db *DB) ReplaceUsageRecords(records []models.UsageRecord) error {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM flag_usage"); err != nil {
		return fmt.Errorf("failed to clear usage records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO flag_usage (origin, name, sum) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare usage insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Origin, r.Name, r.Sum); err != nil {
			return fmt.Errorf("failed to insert usage record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage records: %w", err)
	}
	return nil
}

// LoadUsageRecords returns every flag_usage row in insertion order.
func (db *DB) LoadUsageRecords() ([]models.UsageRecord, error) {
	query := `
		SELECT origin, name, sum
		FROM flag_usage
		ORDER BY rowid
	`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query usage records: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	records := make([]models.UsageRecord, 0)
	for i := 0; rows.Next(); i++ {
		var origin, name sql.NullString
		var sum sql.NullFloat64

		if err := rows.Scan(&origin, &name, &sum); err != nil {
			return nil, &RowError{Row: i, Column: "row", Err: err}
		}
		switch {
		case !origin.Valid:
			return nil, &RowError{Row: i, Column: "origin", Err: errNullValue}
		case !name.Valid:
			return nil, &RowError{Row: i, Column: "name", Err: errNullValue}
		case !sum.Valid:
			return nil, &RowError{Row: i, Column: "sum", Err: errNullValue}
		}

		records = append(records, models.UsageRecord{
			Origin: origin.String,
			Name:   name.String,
			Sum:    sum.Float64,
		})
	}

	return records, rows.Err()
}

// GetUsageStats computes the headline metrics in SQL.
func (db *DB) GetUsageStats() (models.Metrics, error) {
	query := `
		SELECT
			COUNT(*) as total_records,
			COUNT(DISTINCT name) as unique_flags,
			COUNT(DISTINCT origin) as unique_origins,
			COALESCE(SUM(sum), 0) as total_calls
		FROM flag_usage
	`

	var m models.Metrics
	err := db.QueryRowContext(context.Background(), query).Scan(
		&m.TotalRecords,
		&m.UniqueFlagCount,
		&m.UniqueOriginCount,
		&m.TotalCalls,
	)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("failed to query usage stats: %w", err)
	}

	return m, nil
}

// InsertSnapshotMeta records a snapshot export and sets meta.ID.
func (db *DB) InsertSnapshotMeta(meta *models.SnapshotMeta) error {
	query := `
		INSERT INTO snapshot_meta (
			session_id, source, filter, record_count, total_calls, created_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := meta.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := db.ExecContext(context.Background(), query,
		meta.SessionID,
		meta.Source,
		meta.Filter,
		meta.RecordCount,
		meta.TotalCalls,
		createdAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot meta: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		meta.ID = id
	}

	return nil
}

// GetLatestSnapshotMeta returns the most recent snapshot metadata, or nil if
// none has been recorded.
func (db *DB) GetLatestSnapshotMeta() (*models.SnapshotMeta, error) {
	// Snapshots written by other tools may lack the table.
	ok, err := db.hasTable("snapshot_meta")
	if err != nil || !ok {
		return nil, err
	}

	query := `
		SELECT id, session_id, source, filter, record_count, total_calls, created_at
		FROM snapshot_meta
		ORDER BY id DESC
		LIMIT 1
	`

	var meta models.SnapshotMeta
	var createdAt string
	err = db.QueryRowContext(context.Background(), query).Scan(
		&meta.ID,
		&meta.SessionID,
		&meta.Source,
		&meta.Filter,
		&meta.RecordCount,
		&meta.TotalCalls,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot meta: %w", err)
	}

	meta.CreatedAt = parseTimestamp(createdAt)
	return &meta, nil
}

// parseTimestamp accepts the layouts SQLite and the driver produce for
// DATETIME columns.
func parseTimestamp(s string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
		"2006-01-02T15:04:05Z",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
