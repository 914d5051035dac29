package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"webinar_archive/internal/domain"
)

type SyncStateStore struct {
	db *sqlx.DB
}

func NewSyncStateStore(db *sqlx.DB) *SyncStateStore {
	return &SyncStateStore{db: db}
}

func (s *SyncStateStore) Get(ctx context.Context, sourceID string) (*domain.SyncState, error) {
	var state domain.SyncState
	query := `
		SELECT source_id, last_synced_at, last_run_id, catalog_size, total_runs
		FROM sync_state
		WHERE source_id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &state, query, sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		// Return empty state for new sources
		return &domain.SyncState{SourceID: sourceID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state: %w", err)
	}
	return &state, nil
}

func (s *SyncStateStore) Update(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO sync_state (source_id, last_synced_at, last_run_id, catalog_size, total_runs)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id) DO UPDATE SET
			last_synced_at = EXCLUDED.last_synced_at,
			last_run_id = EXCLUDED.last_run_id,
			catalog_size = EXCLUDED.catalog_size,
			total_runs = EXCLUDED.total_runs`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		state.SourceID,
		state.LastSyncedAt,
		state.LastRunID,
		state.CatalogSize,
		state.TotalRuns,
	)
	if err != nil {
		return fmt.Errorf("update sync state: %w", err)
	}
	return nil
}
