package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"NavSentinel/internal/api"
	"NavSentinel/internal/collector"
	"NavSentinel/internal/config"
	"NavSentinel/internal/logging"
	"NavSentinel/internal/notifier"
	"NavSentinel/internal/recorder"
	"NavSentinel/internal/scheduler"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("config validation: %v", err)
	}
	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	logger.Info("NavSentinel starting...")
	loc := cfg.Location()

	// Init fetcher
	var fetcher collector.HistoryFetcher
	switch cfg.DataSource.Provider {
	case "rest":
		fetcher = collector.NewRESTFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case "mock":
		fetcher = &collector.MockFetcher{BaseNAV: 1}
	default:
		fetcher = collector.NewEastmoneyFetcher(cfg.Proxy, loc)
	}
	logger.WithField("source", fetcher.Name()).Info("data source ready")

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warnf("init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	col := collector.NewCollector(fetcher, rec, cfg.DataSource.HistoryLimit, logger)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		sender = tn
	} else {
		logger.Info("telegram not configured, alerts disabled")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, rec, sender, logger, scheduler.Options{
		Funds:         cfg.Funds,
		Location:      loc,
		RetentionDays: cfg.RetentionDays,
	})
	if err := sched.RegisterAll(cfg.Schedule.SampleCron, cfg.Schedule.CleanupCron); err != nil {
		logger.Fatalf("register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("telegram polling started")
	}

	// Optional: sample immediately on start, regardless of session
	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, sampling now")
		go sched.SampleAll(ctx, time.Now())
	}

	srv := api.NewServer(rec, col, loc, logger)
	go func() {
		if err := srv.Run(ctx, cfg.HTTP.Addr); err != nil {
			logger.Errorf("http server: %v", err)
			cancel()
		}
	}()

	logger.Info("NavSentinel is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}
	cancel()
	logger.Info("NavSentinel stopped")
}
