package main

import (
	"context"
	"errors"
	"os"
	"time"

	"allowance/internal/backend"
	"allowance/internal/cli"
	applog "allowance/internal/log"
	"allowance/internal/services"
	"allowance/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting allowance-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog())
	bcfg, store := cli.OpenBackend(startCtx, logger, factory, cfg)
	if bcfg.Type == backend.MemoryBackend {
		logger.Warn("Worker is running on the memory backend; it cannot see the server's records")
	}

	client, err := factory.CreatePublisher(bcfg)
	if err != nil {
		logger.Error("Failed to connect to AMQP", applog.FieldError, err)
		os.Exit(1)
	}

	ledger, err := factory.CreateLedger(startCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize ledger mirror", applog.FieldError, err)
		os.Exit(1)
	}

	badges := services.NewBadgeService(store.Store,
		services.WithLogger(logger.WithComponent(applog.ComponentServices).Slog()))
	activity := worker.NewActivityWorker(badges, store.Store, ledger, logger.Slog())
	sweeper, err := worker.NewSweeper(badges, cfg.ReconcileSchedule, logger.WithComponent(applog.ComponentSweep).Slog())
	if err != nil {
		logger.Error("Failed to schedule reconcile sweep", applog.FieldError, err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		sweeper.Stop(ctx)
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", applog.FieldError, err)
		}
		if err := store.Cleanup(); err != nil {
			logger.Warn("Failed to close store", applog.FieldError, err)
		}
	})

	// Catch up on anything missed while the worker was down.
	sweeper.RunOnce(ctx)
	sweeper.Start()

	logger.Info("Consuming activity messages",
		"queue", cfg.AMQPQueue,
		"ledger", ledger != nil,
		"schedule", cfg.ReconcileSchedule)
	if err := client.ConsumeActivity(ctx, activity.HandleActivity); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
	}

	<-ctx.Done()
	<-done
	logger.Info("Worker stopped")
}
