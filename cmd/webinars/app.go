package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"webinar_archive/internal/config"
	"webinar_archive/internal/publisher"
	"webinar_archive/internal/service"
	"webinar_archive/internal/source/algolia"
	"webinar_archive/internal/storage/file"
	"webinar_archive/internal/storage/postgres"
)

// stores groups the backends selected by storage.driver.
type stores struct {
	catalog   service.CatalogStore
	state     service.StateStore
	syncState service.SyncStateStore
	close     func() error
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Storage.Database.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}

		version, dirty, err := postgres.Migrate(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("connected to database", "schema_version", version, "dirty", dirty)

		return &stores{
			catalog:   postgres.NewCatalogStore(db),
			state:     postgres.NewStateStore(db),
			syncState: postgres.NewSyncStateStore(db),
			close:     db.Close,
		}, nil

	default:
		logger.Debug("using file storage",
			"catalog_path", cfg.Storage.CatalogPath,
			"state_path", cfg.Storage.StatePath,
		)
		return &stores{
			catalog:   file.NewCatalogStore(cfg.Storage.CatalogPath, logger),
			state:     file.NewStateStore(cfg.Storage.StatePath, logger),
			syncState: file.NewSyncStateStore(cfg.Storage.SyncStatePath, logger),
			close:     func() error { return nil },
		}, nil
	}
}

func newSource(cfg *config.Config, logger *slog.Logger) *algolia.Source {
	return algolia.New(algolia.Config{
		BaseURL:     cfg.API.BaseURL,
		SiteURL:     cfg.API.SiteURL,
		IndexName:   cfg.API.IndexName,
		Language:    cfg.API.Language,
		HitsPerPage: cfg.API.HitsPerPage,
		Timeout:     cfg.API.Timeout,
		UserAgent:   cfg.API.UserAgent,
	}, logger)
}

// newPublisher returns nil when RabbitMQ is not configured. A broker that is
// configured but unreachable is logged and refreshes continue without events.
func newPublisher(cfg *config.Config, logger *slog.Logger) service.Publisher {
	if !cfg.RabbitMQ.Enabled() {
		return nil
	}

	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Warn("refresh events disabled", "error", err)
		return nil
	}
	return rabbitMQ
}

func newSyncService(cfg *config.Config, st *stores, pub service.Publisher, logger *slog.Logger) *service.SyncService {
	return service.NewSyncService(newSource(cfg, logger), st.catalog, st.syncState, pub, logger)
}
