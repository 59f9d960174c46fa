package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/analysis"
	"finsight/internal/config"
	"finsight/internal/core"
	"finsight/internal/ledger"
	"finsight/internal/ledger/memory"
	"finsight/internal/log"
	"finsight/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	var (
		userID  = flag.Int64("user", 1, "user to analyze")
		kind    = flag.String("kind", "", "persist a snapshot of this kind (pattern, forecast, anomaly, trend, comparative)")
		history = flag.Int("history", 0, "print the N most recent snapshots instead of running an analysis")
	)
	flag.Parse()

	logger := log.New(log.Config{Component: "finsight"})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	source, store, closer, err := buildBackend(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize data backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if closer != nil {
		defer closer()
	}

	// Completion events are optional; analysis runs fine without a broker.
	var events analysis.EventPublisher
	if cfg.AMQPURL != "" && *kind != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, continuing without events", "error", err)
		} else {
			defer client.Close()
			events = client
		}
	}

	svc := analysis.NewService(source, store, events, analysis.Config{
		BreakdownDays:         cfg.BreakdownDays,
		AnomalyDays:           cfg.AnomalyDays,
		TrendMonths:           cfg.TrendMonths,
		HistoryMonths:         cfg.HistoryMonths,
		BaselineMonthlyIncome: cfg.BaselineMonthlyIncome,
	}, logger.WithComponent("analysis"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, svc, *userID, *kind, *history); err != nil {
		logger.Error("Analysis failed", "error", err, "user_id", *userID)
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *analysis.Service, userID int64, kind string, history int) error {
	switch {
	case history > 0:
		snaps, err := svc.History(ctx, userID, history)
		if err != nil {
			return err
		}
		return printJSON(snaps)
	case kind != "":
		snap, err := svc.RunAndPersist(ctx, userID, core.AnalysisKind(kind))
		if err != nil {
			return err
		}
		return printJSON(snap)
	default:
		report, err := svc.Run(ctx, userID)
		if err != nil {
			return err
		}
		return printJSON(report)
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func buildBackend(cfg *config.Config, logger *log.Logger) (ledger.Source, ledger.SnapshotStore, func() error, error) {
	switch cfg.DataBackend {
	case "sqlite":
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger.WithComponent("storage"))
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
		return repo, repo, repo.Close, nil
	default:
		store := memory.New()
		logger.Info("Initialized memory backend")
		return store, store, nil, nil
	}
}
