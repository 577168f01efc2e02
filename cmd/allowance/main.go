package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"allowance/internal/backend"
	"allowance/internal/cache"
	"allowance/internal/cli"
	"allowance/internal/core"
	apphttp "allowance/internal/http"
	applog "allowance/internal/log"
	"allowance/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	bcfg, store := cli.OpenBackend(context.Background(), logger, factory, cfg)

	opts := []services.Option{services.WithLogger(logger.WithComponent(applog.ComponentServices).Slog())}
	publisher, err := factory.CreatePublisher(bcfg)
	if err != nil {
		// Activity messages are best effort; the API works without them.
		logger.Warn("AMQP unavailable, continuing without activity messages", applog.FieldError, err)
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}

	overviewCache := cache.NewLRUCache[core.Overview](cfg.OverviewCacheSize, cfg.OverviewCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	cacheManager.Register("overview", overviewCache)
	cacheManager.StartCleanup(time.Minute)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions: services.NewTransactionService(store.Store, opts...),
		Goals:        services.NewGoalService(store.Store, opts...),
		Badges:       services.NewBadgeService(store.Store, opts...),
		Overview:     services.NewOverviewService(store.Store, overviewCache),
		Profiles:     services.NewProfileService(store.Store),
		Store:        store.Store,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", applog.FieldError, err)
			}
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Failed to close store", applog.FieldError, err)
		}
	})

	logger.Info("Starting allowance server",
		"port", cfg.Port,
		"backend", string(bcfg.Type),
		"amqp", publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	<-done
	logger.Info("Server stopped gracefully")
}
