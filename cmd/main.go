package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payables_service/internal/config"
	"payables_service/internal/handlers"
	"payables_service/internal/repository/audit"
	"payables_service/internal/repository/database"
	"payables_service/internal/server"
	"payables_service/internal/services/export"
	"payables_service/internal/services/lifecycle"
	"payables_service/internal/transport/auth"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := config.Init(setupCtx, logger)
	defer cfg.Postgres.Close()
	defer func() {
		if err := cfg.Mongo.Close(context.Background()); err != nil {
			logger.WithError(err).Warn("[SHUTDOWN] mongo disconnect failed")
		}
	}()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := cfg.S3.EnsureBucket(setupCtx); err != nil {
		logger.Fatalf("bucket setup failed: %v", err)
	}
	if err := cfg.CheckConnections(setupCtx); err != nil {
		logger.Fatalf("connection check failed: %v", err)
	}
	logger.Info("[BOOT] all connections OK")

	obligations := database.NewObligationsRepo(cfg.Postgres)
	schedules := database.NewSchedulesRepo(cfg.Postgres)
	credit := database.NewCreditRepo(cfg.Postgres)
	tokens := database.NewTokensRepo(cfg.Postgres)
	decisions := audit.NewDecisionStore(cfg.Mongo)

	policy := lifecycle.NewThresholdPolicy(cfg.AutoApproveLimit, cfg.ManagerLimit)
	lc := lifecycle.NewService(obligations, schedules, decisions, policy, logger)
	exporter := export.NewService(obligations, credit, cfg.S3, cfg.Mongo, logger)

	h := handlers.New(cfg.Postgres, cfg.Mongo, cfg.S3, obligations, lc, exporter, logger)
	srv := server.NewServer(cfg.Port, h, auth.Middleware(tokens, logger))

	c := cron.New()
	if _, err := c.AddFunc(cfg.AgingExportCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := exporter.ExportAging(ctx, time.Now().UTC(), nil); err != nil {
			logger.WithError(err).Error("[CRON][AGING] scheduled export failed")
		}
	}); err != nil {
		logger.Fatalf("bad cron spec %q: %v", cfg.AgingExportCron, err)
	}
	c.Start()
	defer c.Stop()

	logger.Infof("[BOOT] listening on :%s", cfg.Port)
	if err := srv.Run(runCtx); err != nil {
		logger.Fatal(err)
	}
}
