package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MMN3003/telegram-commander/internal/api"
	"github.com/MMN3003/telegram-commander/internal/bot"
	"github.com/MMN3003/telegram-commander/internal/config"
	"github.com/MMN3003/telegram-commander/internal/ingest"
	"github.com/MMN3003/telegram-commander/internal/models"
	"github.com/MMN3003/telegram-commander/internal/scheduler"
	"github.com/MMN3003/telegram-commander/internal/services/telegram"
	"github.com/MMN3003/telegram-commander/internal/utils"
	"github.com/MMN3003/telegram-commander/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting telegram-commander")
	logger.WithField("watch_dir", cfg.WatchDir).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize Telegram client
	client, err := telegram.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	logger.Info("Telegram client initialized")

	// 5. Initialize the browse bot and the ingestion pipeline
	browseBot := bot.NewHandler(db, client, cfg, logger)
	pipeline := ingest.NewPipeline(db, client, cfg, logger)
	logger.Info("Handlers initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Start the drop directory watcher
	dropWatcher := watcher.New(cfg.WatchDir, pipeline, logger)
	watcherErrChan := make(chan error, 1)
	go func() {
		if err := dropWatcher.Run(ctx); err != nil && err != context.Canceled {
			watcherErrChan <- err
		}
	}()

	// 7. Start the sweep scheduler
	sched := scheduler.NewScheduler(dropWatcher, cfg.SweepInterval, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Start the update source: webhook server or long polling
	server := api.NewServer(cfg, browseBot, logger)
	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	if cfg.Polling {
		poller := telegram.NewPoller(client, browseBot, logger)
		go func() {
			if err := poller.Run(ctx); err != nil && err != context.Canceled {
				logger.WithError(err).Error("Poller stopped")
			}
		}()
	}

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("telegram-commander is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case err := <-watcherErrChan:
		return fmt.Errorf("watcher error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("telegram-commander stopped")
	return nil
}
