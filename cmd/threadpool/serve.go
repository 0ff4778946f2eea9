package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/threadpool/api/v1"
	"github.com/kubev2v/threadpool/internal/config"
	"github.com/kubev2v/threadpool/internal/handlers"
	"github.com/kubev2v/threadpool/internal/metrics"
	"github.com/kubev2v/threadpool/internal/server"
	"github.com/kubev2v/threadpool/internal/services"
	"github.com/kubev2v/threadpool/internal/store"
)

const (
	databaseFile    = "threadpool.duckdb"
	shutdownTimeout = 10 * time.Second
)

func newServeCommand() *cobra.Command {
	defaults := config.NewConfigurationWithOptionsAndDefaults()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the job API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			flush, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.Int(flagHTTPPort, defaults.Server.HTTPPort, "HTTP listen port")
	flags.String(flagServerMode, defaults.Server.ServerMode, "server mode: dev or prod")
	flags.String(flagDataFolder, defaults.Store.DataFolder, "folder of the job history database (in memory when empty)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Configuration) error {
	log := zap.S().Named("serve")
	log.Infow("configuration loaded", "config", cfg.DebugMap())

	dbPath := ":memory:"
	if cfg.Store.DataFolder != "" {
		if err := os.MkdirAll(cfg.Store.DataFolder, 0o750); err != nil {
			return fmt.Errorf("failed to create data folder: %w", err)
		}
		dbPath = filepath.Join(cfg.Store.DataFolder, databaseFile)
	}

	db, err := store.NewDB(dbPath)
	if err != nil {
		return err
	}
	st := store.NewStore(db)
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}

	pool, err := newPool(cfg, cfg.PoolSize)
	if err != nil {
		return err
	}
	jobSrv := services.NewJobService(pool, st)
	defer func() {
		pool.TerminateAll()
		<-pool.Stopped()
		jobSrv.Wait()
		if err := jobSrv.Abandon(context.Background()); err != nil {
			log.Errorw("failed to record abandoned jobs", "error", err)
		}
	}()

	srv, err := server.NewServer(cfg, func(router *gin.RouterGroup) {
		v1.RegisterHandlers(router, handlers.New(jobSrv))
	}, server.WithMetrics(metrics.Handler(metrics.NewRegistry(pool))))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
