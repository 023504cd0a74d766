package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"revtrack/internal/amqp"
	"revtrack/internal/backend"
	"revtrack/internal/cli"
	"revtrack/internal/log"
	"revtrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("Worker configuration validation failed", "error", err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	// The server publishes; the worker only reads the shared store.
	readCfg := backendCfg
	readCfg.AMQPURL = ""

	factory := backend.NewFactory(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := factory.CreateBackend(ctx, readCfg)
	if err != nil {
		logger.Error("Failed to open data store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := source.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	mirror, err := factory.CreateMirror(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create mirror", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(source.Service, mirror, mirror)

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		cancel()
	})

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		return amqpClient.ConsumeEntrySync(gctx, syncWorker.HandleSyncMessage)
	})
	g.Go(func() error {
		return worker.RunResyncLoop(gctx, syncWorker, worker.ResyncConfig{
			Interval:   cfg.SyncInterval,
			RunOnStart: true,
		})
	})

	logger.Info("Starting revtrack worker",
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		cancel()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
