package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/config"
	"finsight/internal/export"
	gsheet "finsight/internal/export/google"
	"finsight/internal/log"
	"finsight/internal/storage"
	"finsight/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: "finsight-worker"})
	log.SetDefault(logger)

	logger.Info("Starting finsight-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger.WithComponent("storage"))
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// The Sheets sink is optional; without it the worker only drains and
	// acknowledges messages.
	var writer export.SnapshotWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exportWorker *worker.ExportWorker
	if writer != nil {
		exportWorker = worker.NewExportWorker(repo, writer, cfg.ExportBatchSize)

		// Re-export recent snapshots on startup in case completion
		// messages were lost while the worker was down.
		if userIDs := exportUserIDs(logger); len(userIDs) > 0 {
			logger.Info("Performing startup export check", "users", len(userIDs))
			if err := exportWorker.ExportRecent(ctx, userIDs); err != nil {
				logger.Error("Startup export check failed", "error", err)
				// Don't exit - continue with normal operation
			}
		}
	}

	if exportWorker != nil {
		go func() {
			if err := amqpClient.ConsumeAnalysisCompleted(ctx, exportWorker.HandleAnalysisMessage); err != nil {
				if err != context.Canceled {
					logger.Error("Message consumption failed", "error", err)
				}
				cancel()
			}
		}()

		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					userIDs := exportUserIDs(logger)
					if len(userIDs) == 0 {
						continue
					}
					if err := exportWorker.ExportRecent(ctx, userIDs); err != nil {
						logger.Error("Periodic export failed", "error", err)
					}
				}
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - no export sink available")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("finsight-worker stopped")
}

// exportUserIDs parses the EXPORT_USER_IDS list, e.g. "1,2,3". An empty
// variable disables the backlog passes.
func exportUserIDs(logger *log.Logger) []int64 {
	raw := strings.TrimSpace(os.Getenv("EXPORT_USER_IDS"))
	if raw == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			logger.Warn("Skipping invalid user id in EXPORT_USER_IDS", "value", part)
			continue
		}
		out = append(out, id)
	}
	return out
}
