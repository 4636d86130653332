package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vitallab/vitallab/internal/config"
	"github.com/vitallab/vitallab/internal/domain/tracks"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize the local store from VitalDB",
	}

	// sync cases
	cmd.AddCommand(&cobra.Command{
		Use:   "cases",
		Short: "Fetch the case table and upsert it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSyncServices(func(ctx context.Context, svc *services, _ *config.Config) error {
				succeeded, failed, err := svc.cases.Sync(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("(%d, %d)\n", succeeded, failed)
				return nil
			})
		},
	})

	// sync tracks
	tracksCmd := &cobra.Command{
		Use:   "tracks",
		Short: "Fetch track metadata and samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := caseFlag(cmd)
			if err != nil {
				return err
			}
			return withSyncServices(func(ctx context.Context, svc *services, cfg *config.Config) error {
				concurrency, _ := cmd.Flags().GetInt("concurrency")
				if concurrency < 1 {
					concurrency = cfg.SyncConcurrency
				}
				res, err := svc.tracks.Sync(ctx, tracks.SyncOptions{CaseID: caseID, Concurrency: concurrency})
				if err != nil {
					return err
				}
				fmt.Printf("(%d, %d)\n", res.Tracks, res.Points)
				if res.Failed > 0 {
					fmt.Printf("%d of %d track(s) failed; see the log for details.\n", res.Failed, res.Tracks)
				}
				return nil
			})
		},
	}
	tracksCmd.Flags().Int64("case", 0, "Only synchronize tracks of this case")
	tracksCmd.Flags().Int("concurrency", 0, "Tracks fetched in parallel (default SYNC_CONCURRENCY)")
	cmd.AddCommand(tracksCmd)

	// sync labs
	labsCmd := &cobra.Command{
		Use:   "labs",
		Short: "Fetch lab results and append new rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			caseID, err := caseFlag(cmd)
			if err != nil {
				return err
			}
			return withSyncServices(func(ctx context.Context, svc *services, _ *config.Config) error {
				res, err := svc.labs.Sync(ctx, caseID)
				if err != nil {
					return err
				}
				fmt.Printf("(%d, %d)\n", res.Inserted, res.Skipped)
				return nil
			})
		},
	}
	labsCmd.Flags().Int64("case", 0, "Only synchronize lab results of this case")
	cmd.AddCommand(labsCmd)

	return cmd
}

// caseFlag returns the --case filter, or nil when the flag is not set.
func caseFlag(cmd *cobra.Command) (*int64, error) {
	if !cmd.Flags().Changed("case") {
		return nil, nil
	}
	id, err := cmd.Flags().GetInt64("case")
	if err != nil {
		return nil, err
	}
	if id < 1 {
		return nil, fmt.Errorf("--case must be a positive case id, got %d", id)
	}
	return &id, nil
}

// withSyncServices runs fn against services backed by the local store and
// the uncached upstream. An interrupt cancels the context.
func withSyncServices(fn func(ctx context.Context, svc *services, cfg *config.Config) error) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg, cfg.DBSchema)
	if err != nil {
		return err
	}
	defer pool.Close()

	syncCfg := *cfg
	syncCfg.DataSource = config.DataSourceLocal
	client := newClient(&syncCfg, logger)

	svc, err := newServices(&syncCfg, pool, client, client, logger)
	if err != nil {
		return err
	}
	return logged(logger, fn(ctx, svc, &syncCfg))
}

func logged(logger zerolog.Logger, err error) error {
	if err != nil {
		logger.Error().Err(err).Msg("sync failed")
	}
	return err
}
