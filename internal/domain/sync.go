package domain

import "time"

// SyncStats holds statistics about a refresh run.
type SyncStats struct {
	RunID    string
	Pages    int
	Hits     int
	Kept     int
	Dropped  int
	Duration time.Duration
}

// SyncState is the bookkeeping kept between refresh runs.
type SyncState struct {
	SourceID     string    `json:"source_id" db:"source_id"`
	LastSyncedAt time.Time `json:"last_synced_at" db:"last_synced_at"`
	LastRunID    string    `json:"last_run_id" db:"last_run_id"`
	CatalogSize  int       `json:"catalog_size" db:"catalog_size"`
	TotalRuns    int64     `json:"total_runs" db:"total_runs"`
}
