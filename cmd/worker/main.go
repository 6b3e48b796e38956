package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/muaina/portal/internal/analysis"
	"github.com/muaina/portal/internal/audit"
	"github.com/muaina/portal/internal/config"
	"github.com/muaina/portal/internal/database"
	"github.com/muaina/portal/internal/org"
	"github.com/muaina/portal/internal/queue"
	"github.com/muaina/portal/internal/queue/workers"
	"github.com/muaina/portal/internal/report"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPool(context.Background(), cfg.Database)
	if err != nil {
		slog.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	reports := report.NewService(report.NewPGStore(db))
	orgs := org.NewService(db)
	audits := audit.NewService(db)
	producer := analysis.NewHTTPProducer(cfg.Producer.BaseURL, cfg.Producer.APIKey, cfg.Producer.Timeout)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	registry := queue.NewHandlersRegistry()

	analyzeWorker := workers.NewAnalyzeWorker(reports, producer)
	lastSeenWorker := workers.NewLastSeenWorker(orgs)
	auditWriteWorker := workers.NewAuditWriteWorker(audits)

	registry.Register(queue.TypeReportAnalyze, asynq.HandlerFunc(analyzeWorker.ProcessTask))
	registry.Register(queue.TypeLastSeenUpdate, asynq.HandlerFunc(lastSeenWorker.ProcessTask))
	registry.Register(queue.TypeAuditWrite, asynq.HandlerFunc(auditWriteWorker.ProcessTask))

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
