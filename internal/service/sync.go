package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"webinar_archive/internal/domain"
	"webinar_archive/internal/metrics"
)

// SyncService rebuilds the catalog from the upstream source. The user state
// store is never touched by a refresh.
type SyncService struct {
	source    Source
	catalog   CatalogStore
	syncState SyncStateStore
	publisher Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewSyncService wires a refresh pipeline. publisher may be nil.
func NewSyncService(
	source Source,
	catalog CatalogStore,
	syncState SyncStateStore,
	publisher Publisher,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:    source,
		catalog:   catalog,
		syncState: syncState,
		publisher: publisher,
		logger:    logger.With("source", source.ID()),
		now:       time.Now,
	}
}

// Sync runs one full refresh. A fetch failure leaves the stored catalog as it
// was; only a complete fetch replaces it.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := s.now()
	runID := uuid.NewString()
	logger := s.logger.With("run_id", runID)

	logger.Info("starting sync", "source_name", s.source.Name())

	webinars, stats, err := s.source.FetchWebinars(ctx, startTime)
	if err != nil {
		metrics.RecordSyncFailure(s.now().Sub(startTime))
		logger.Error("sync aborted, catalog left unchanged", "error", err, "pages", stats.Pages)
		return nil, fmt.Errorf("fetch webinars: %w", err)
	}

	stats.RunID = runID
	logger.Info("fetched webinars from source",
		"pages", stats.Pages,
		"hits", stats.Hits,
		"kept", stats.Kept,
		"dropped", stats.Dropped,
	)

	if err := s.catalog.Save(ctx, webinars); err != nil {
		metrics.RecordSyncFailure(s.now().Sub(startTime))
		return nil, fmt.Errorf("save catalog: %w", err)
	}

	stats.Duration = s.now().Sub(startTime)

	if err := s.updateSyncState(ctx, &stats); err != nil {
		metrics.RecordSyncFailure(stats.Duration)
		return &stats, fmt.Errorf("update sync state: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRefresh(ctx, s.source.ID(), stats); err != nil {
			logger.Warn("failed to publish catalog refresh", "error", err)
		}
	}

	metrics.RecordSyncSuccess(stats.Duration, stats.Kept, stats.Dropped, s.now())

	logger.Info("sync completed",
		"catalog_size", stats.Kept,
		"dropped", stats.Dropped,
		"duration", stats.Duration,
	)

	return &stats, nil
}

func (s *SyncService) updateSyncState(ctx context.Context, stats *domain.SyncStats) error {
	state, err := s.syncState.Get(ctx, s.source.ID())
	if err != nil {
		return err
	}

	state.SourceID = s.source.ID()
	state.LastSyncedAt = s.now()
	state.LastRunID = stats.RunID
	state.CatalogSize = stats.Kept
	state.TotalRuns++

	return s.syncState.Update(ctx, state)
}
