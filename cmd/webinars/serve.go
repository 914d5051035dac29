package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webinar_archive/internal/api"
	"webinar_archive/internal/service"
	"webinar_archive/internal/source/algolia"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog API",
		Long: "Serve the merged catalog and the toggle endpoints. When a sync interval or schedule is " +
			"configured, refreshes run in the background of the same process.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger := ctx.cfg, ctx.logger
			if addr != "" {
				cfg.HTTP.Addr = addr
			}

			st, err := openStores(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			catalogService := service.NewCatalogService(st.catalog, st.state, logger)
			handler := api.NewHandler(catalogService, st.syncState, algolia.SourceID, logger)

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           api.NewServer(handler, os.Stdout),
				ReadHeaderTimeout: 10 * time.Second,
			}

			if cfg.SchedulerEnabled() {
				pub := newPublisher(cfg, logger)
				if pub != nil {
					defer pub.Close()
				}

				sched, err := newScheduler(cfg.Sync.Schedule, cfg.Sync.Interval, newSyncService(cfg, st, pub, logger), cfg, logger)
				if err != nil {
					return err
				}

				go func() {
					if err := sched.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("scheduler stopped", "error", err)
					}
				}()
			}

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("starting http server", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			case <-runCtx.Done():
			}

			logger.Info("shutting down http server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides http.addr")
	return cmd
}
