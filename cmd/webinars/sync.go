package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"webinar_archive/internal/config"
	"webinar_archive/internal/scheduler"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Refresh the catalog from the upstream listing",
		Long: "Refresh the catalog from the upstream listing. With --once a single run is made and a failed " +
			"run exits non-zero; otherwise refreshes repeat on the configured interval or schedule.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger := ctx.cfg, ctx.logger

			st, err := openStores(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer st.close()

			pub := newPublisher(cfg, logger)
			if pub != nil {
				defer pub.Close()
			}

			syncService := newSyncService(cfg, st, pub, logger)

			if once || !cfg.SchedulerEnabled() {
				syncCtx, cancel := context.WithTimeout(runCtx, cfg.Sync.Timeout)
				defer cancel()

				stats, err := syncService.Sync(syncCtx)
				if err != nil {
					return fmt.Errorf("sync failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %d webinars (%d dropped) in %s\n",
					stats.Kept, stats.Dropped, stats.Duration.Round(time.Millisecond))
				return nil
			}

			sched, err := newScheduler(cfg.Sync.Schedule, cfg.Sync.Interval, syncService, cfg, logger)
			if err != nil {
				return err
			}

			logger.Info("starting webinar syncer",
				"interval", cfg.Sync.Interval,
				"schedule", cfg.Sync.Schedule,
			)

			if err := sched.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single refresh and exit")
	return cmd
}

// newScheduler always runs the first refresh immediately when driven by an
// interval, and only when run_on_start is set for a cron schedule.
func newScheduler(schedule string, interval time.Duration, syncer scheduler.Syncer, cfg *config.Config, logger *slog.Logger) (*scheduler.Scheduler, error) {
	opts := []scheduler.Option{scheduler.WithTimeout(cfg.Sync.Timeout)}
	if schedule != "" {
		opts = append(opts, scheduler.WithRunOnStart(cfg.Sync.RunOnStart))
		return scheduler.NewCronScheduler(syncer, schedule, logger, opts...)
	}
	opts = append(opts, scheduler.WithRunOnStart(true))
	return scheduler.NewScheduler(syncer, interval, logger, opts...), nil
}
