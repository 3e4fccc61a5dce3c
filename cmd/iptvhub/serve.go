package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voyagen/iptvhub/internal/cache"
	"github.com/voyagen/iptvhub/internal/config"
	"github.com/voyagen/iptvhub/internal/logging"
	"github.com/voyagen/iptvhub/internal/scheduler"
	"github.com/voyagen/iptvhub/internal/server"
	"github.com/voyagen/iptvhub/internal/service"
	"github.com/voyagen/iptvhub/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, refresh worker and scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if err := scheduler.Validate(cfg.RefreshSchedule); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger := logging.New(cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []service.Option{
		service.WithTTL(cfg.CacheTTL),
		service.WithLogger(logging.WithComponent(logger, "service")),
	}

	var rds *cache.Redis
	if cfg.RedisURL != "" {
		var err error
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rds.Close()
		if err := rds.Ping(ctx); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		opts = append(opts, service.WithCache(rds))
		logger.Info("redis connected, caching enabled")
	} else {
		logger.Info("redis disabled (REDIS_URL not set)")
	}

	if cfg.DatabaseURL != "" {
		if err := store.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pg.Close()

		var st store.Store = pg
		if rds != nil {
			cs := store.NewCachedStore(pg, rds, logging.WithComponent(logger, "store"))
			if err := cs.Reset(ctx); err != nil {
				logger.Warn("reset store cache", slog.Any("error", err))
			}
			st = cs
		}
		opts = append(opts, service.WithStore(st))
		logger.Info("database connected, saved sources enabled")
	} else {
		logger.Info("saved sources disabled (DATABASE_URL not set)")
	}

	svc := service.New(newResolver(cfg, logger), opts...)

	var wg sync.WaitGroup
	if svc.HasStore() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RunWorker(ctx)
		}()

		sched, err := scheduler.New(svc, cfg.RefreshSchedule, logging.WithComponent(logger, "scheduler"))
		if err != nil {
			return err
		}
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := server.New(svc, cfg.ServerPort, logging.WithComponent(logger, "http"))
	err := srv.ListenAndServe(ctx)
	cancel()
	wg.Wait()
	return err
}
