package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"webinar_archive/internal/domain"
)

// CatalogStore is replace-only: Save overwrites the whole catalog.
type CatalogStore interface {
	Load(ctx context.Context) ([]domain.Webinar, error)
	Save(ctx context.Context, webinars []domain.Webinar) error
}

// StateStore holds user flags keyed by webcast id. Update runs
// load-mutate-save as one exclusive step; nothing is written when fn fails.
type StateStore interface {
	Load(ctx context.Context) (domain.StateMap, error)
	Save(ctx context.Context, state domain.StateMap) error
	Update(ctx context.Context, fn func(domain.StateMap) error) error
}

type SyncStateStore interface {
	Get(ctx context.Context, sourceID string) (*domain.SyncState, error)
	Update(ctx context.Context, state *domain.SyncState) error
}

type Source interface {
	ID() string
	Name() string
	FetchWebinars(ctx context.Context, archivedBefore time.Time) ([]domain.Webinar, domain.SyncStats, error)
}

type Publisher interface {
	PublishRefresh(ctx context.Context, sourceID string, stats domain.SyncStats) error
	Close() error
}
