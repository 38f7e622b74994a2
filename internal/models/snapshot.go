package models

import "time"

// SnapshotMeta describes one SQLite snapshot export.
type SnapshotMeta struct {
	ID          int64
	SessionID   string
	Source      string
	Filter      string
	RecordCount int
	TotalCalls  float64
	CreatedAt   time.Time
}
