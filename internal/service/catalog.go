package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"webinar_archive/internal/catalog"
	"webinar_archive/internal/domain"
	"webinar_archive/internal/metrics"
)

// SortDefault selects catalog.SortDefault ordering in MergedView.
const SortDefault = "default"

type ViewOptions struct {
	// Sort is SortDefault for the default presentation order. Any other
	// value keeps the stored catalog order.
	Sort string
}

// ToggleRequest sets one flag on one webcast. WebcastID wins over ObjectID
// when both are given.
type ToggleRequest struct {
	Flag      domain.Flag
	Value     *bool
	WebcastID string
	ObjectID  string
}

// ImportStats summarizes a legacy flag import.
type ImportStats struct {
	Imported   int
	Skipped    int
	Unresolved int
}

// CatalogService serves the merged view and applies flag toggles.
type CatalogService struct {
	catalog CatalogStore
	state   StateStore
	logger  *slog.Logger

	// mu serializes state writers inside this process; the store's Update
	// covers other processes.
	mu sync.Mutex
}

func NewCatalogService(catalog CatalogStore, state StateStore, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		state:   state,
		logger:  logger.With("component", "catalog"),
	}
}

// MergedView re-reads both stores on every call.
func (s *CatalogService) MergedView(ctx context.Context, opts ViewOptions) ([]domain.MergedWebinar, error) {
	records, err := s.catalog.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	state, err := s.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	merged := catalog.Merge(records, state)
	if opts.Sort == SortDefault {
		catalog.SortDefault(merged)
	}
	return merged, nil
}

// SetFlag resolves the target webcast and stores the new flag value. The
// other flag of an existing entry is kept. Webcast ids that are not in the
// catalog are accepted.
func (s *CatalogService) SetFlag(ctx context.Context, req ToggleRequest) (webcastID string, err error) {
	defer func() {
		metrics.RecordToggle(string(req.Flag), err == nil)
	}()

	if _, err := domain.ParseFlag(string(req.Flag)); err != nil {
		return "", &domain.ValidationError{Field: "flag"}
	}
	if req.Value == nil {
		return "", &domain.ValidationError{Field: string(req.Flag)}
	}

	webcastID, err = s.resolve(ctx, req.WebcastID, req.ObjectID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value := *req.Value
	err = s.state.Update(ctx, func(state domain.StateMap) error {
		state[webcastID] = state.Get(webcastID).With(req.Flag, value)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("update state: %w", err)
	}

	s.logger.Info("flag updated",
		"webcast_id", webcastID,
		"flag", req.Flag,
		"value", value,
	)
	return webcastID, nil
}

// resolve only reads the catalog when no webcast id was supplied.
func (s *CatalogService) resolve(ctx context.Context, webcastID, objectID string) (string, error) {
	if webcastID != "" {
		return webcastID, nil
	}
	if objectID == "" {
		return "", &domain.ResolutionError{}
	}

	records, err := s.catalog.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("load catalog: %w", err)
	}

	id, ok := catalog.Resolve("", objectID, records)
	if !ok {
		return "", &domain.ResolutionError{ObjectID: objectID}
	}
	return id, nil
}

// ImportLegacy copies inline flags recovered from an old combined catalog
// into the state store in one update. Entries without a webcast id are
// resolved through the current catalog by object id; entries that still
// cannot be resolved are counted and skipped. Flags that are already set are
// never cleared.
func (s *CatalogService) ImportLegacy(ctx context.Context, flags []domain.LegacyFlag) (ImportStats, error) {
	var stats ImportStats

	var records []domain.Webinar
	for _, f := range flags {
		if f.WebcastID == "" {
			loaded, err := s.catalog.Load(ctx)
			if err != nil {
				return stats, fmt.Errorf("load catalog: %w", err)
			}
			records = loaded
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.state.Update(ctx, func(state domain.StateMap) error {
		for _, f := range flags {
			if !f.Watched && !f.Favorite {
				stats.Skipped++
				continue
			}

			id, ok := catalog.Resolve(f.WebcastID, f.ObjectID, records)
			if !ok {
				stats.Unresolved++
				continue
			}

			entry := state.Get(id)
			entry.Watched = entry.Watched || f.Watched
			entry.Favorite = entry.Favorite || f.Favorite
			state[id] = entry
			stats.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("update state: %w", err)
	}

	s.logger.Info("legacy flags imported",
		"imported", stats.Imported,
		"skipped", stats.Skipped,
		"unresolved", stats.Unresolved,
	)
	return stats, nil
}

// IsClientError reports whether err came from bad request input rather than
// from storage.
func IsClientError(err error) bool {
	var validation *domain.ValidationError
	var resolution *domain.ResolutionError
	return errors.As(err, &validation) || errors.As(err, &resolution)
}
