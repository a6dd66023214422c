package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/export"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting report-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Sheets export is optional.
	var exporter worker.Exporter
	if cfg.SheetsEnabled() {
		sheetsExporter, err := export.NewSheetsExporter(ctx, export.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", "error", err)
			os.Exit(1)
		}
		exporter = sheetsExporter
		logger.Info("Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)
	} else {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// So is the Telegram deficit alert.
	var notifier worker.Notifier
	if cfg.TelegramEnabled() {
		telegramNotifier, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error("Failed to initialize Telegram notifier", "error", err)
			os.Exit(1)
		}
		notifier = telegramNotifier
		logger.Info("Telegram alerts enabled", "chat_id", cfg.TelegramChatID)
	} else {
		logger.Info("Telegram alerts disabled")
	}

	reportWorker := worker.NewReportWorker(repo, exporter, notifier)

	g, ctx := errgroup.WithContext(ctx)

	// Consume ledger events when AMQP is configured; otherwise rely on
	// the periodic refresh alone.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeLedgerEvents(ctx, reportWorker.HandleLedgerEvent)
		})
	} else {
		logger.Info("AMQP disabled - running on periodic refresh only")
	}

	// Periodic refresh catches missed events and rolls snapshots into
	// each new month.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ReportRefreshInterval)
		defer ticker.Stop()

		if err := reportWorker.RefreshAll(ctx, time.Now()); err != nil {
			logger.Error("Startup refresh failed", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := reportWorker.RefreshAll(ctx, time.Now()); err != nil {
					logger.Error("Periodic refresh failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
