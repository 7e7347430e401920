package main

import (
	"context"
	"errors"
	"os"
	"time"

	"mindmap_backend/api"
	"mindmap_backend/core"
	"mindmap_backend/db"
	"mindmap_backend/pipeline"
	"mindmap_backend/shutdown"
	"mindmap_backend/tempfiles"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Shutdown priorities; lower runs first.
const (
	priorityHTTP     = 10
	priorityWriter   = 20
	priorityDatabase = 30
	priorityUploads  = 40
	priorityLogger   = 50
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(opts, os.Stdout)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				a.cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
				if err := a.cfg.Validate(); err != nil {
					return err
				}
			}

			mgr := shutdown.NewManager(a.logger.Zap())
			mgr.Start()
			return serve(a, mgr)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen address (overrides HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides PORT)")
	return cmd
}

// serve runs the API with its background jobs until mgr begins shutting
// down or one of them fails, then runs the registered cleanup.
func serve(a *app, mgr *shutdown.Manager) error {
	cfg := a.cfg
	logger := a.logger.Zap()
	a.logConfig()

	store := tempfiles.NewStore(cfg.TempDir, cfg.FileRetention, logger.Named("tempfiles"))
	if err := store.EnsureDir(); err != nil {
		return core.ErrDirectoryNotWritable("TEMP_DIR", cfg.TempDir, err.Error())
	}
	swept := store.Sweep(mgr.Context(), cfg.FileRetention)
	logger.Info("Startup sweep finished",
		zap.Int("scanned", swept.Scanned),
		zap.Int("removed", swept.Removed),
		zap.Int("failed", swept.Failed))

	database, err := a.openHistory()
	if err != nil {
		return err
	}

	var (
		history  api.History
		recorder pipeline.Recorder
		repo     *db.Repository
	)
	if database != nil {
		repo = db.NewRepository(database)
		writerConfig := db.DefaultAsyncWriterConfig()
		writerConfig.OnError = func(op db.WriteOperation, err error) {
			logger.Warn("Failed to record pipeline run",
				zap.Time("queued_at", op.Timestamp),
				zap.Error(err))
		}
		writer := repo.EnableAsync(writerConfig)
		history = repo
		recorder = db.NewHistoryRecorder(repo)

		mgr.Register("history writer", priorityWriter, func(ctx context.Context) error {
			if !writer.Stop() {
				return errors.New("history writer did not drain in time")
			}
			return nil
		})
		mgr.Register("database", priorityDatabase, shutdown.Close(database))
		logger.Info("Run history enabled", zap.String("path", database.Path()))
	}

	server, err := api.NewServer(api.ConfigFromCore(cfg), api.Deps{
		Pipelines: a.newRunner(recorder),
		Store:     store,
		History:   history,
		Tracker:   mgr.Tracker(),
		Logger:    logger.Named("api"),
	})
	if err != nil {
		return err
	}
	mgr.Register("http server", priorityHTTP, server.Shutdown)
	mgr.Register("uploads", priorityUploads, shutdown.CleanupUploads(logger, store))
	mgr.Register("logger", priorityLogger, shutdown.SyncLogger(logger))

	g, ctx := errgroup.WithContext(mgr.Context())
	g.Go(func() error {
		logger.Info("API listening", zap.String("addr", server.Addr()))
		return server.ListenAndServe()
	})
	g.Go(func() error {
		return store.RunSweeper(ctx, cfg.SweepInterval)
	})
	g.Go(func() error {
		return server.RunMaintenance(ctx)
	})
	if repo != nil && cfg.HistoryRetentionDays > 0 {
		g.Go(func() error {
			return repo.RunCleanupScheduler(ctx, db.CleanupSchedulerConfig{
				RetentionDays: cfg.HistoryRetentionDays,
				Interval:      24 * time.Hour,
				OnCleanup: func(result db.CleanupResult, err error) {
					if err != nil {
						logger.Warn("History cleanup failed", zap.Error(err))
						return
					}
					logger.Info("History cleanup finished",
						zap.Int64("deleted", result.Deleted),
						zap.Duration("duration", result.Duration))
				},
			})
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		return mgr.Shutdown()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Goodbye!")
	return nil
}
