package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"news-trading-bot/internal/eod"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/scheduler"
	"news-trading-bot/internal/store"
	"news-trading-bot/internal/trace"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	if err := initializeSystem(); err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		os.Exit(1)
	}

	compressOldLogs(ctx)

	eng, err := buildEngine(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to initialize", err)
		os.Exit(1)
	}

	sched := scheduler.New(time.Duration(cfg.PollSeconds)*time.Second, func(ctx context.Context) {
		if _, err := eng.Tick(ctx); err != nil {
			logger.ErrorWithErr(ctx, "Tick failed", err)
		}
	})
	sched.Start(ctx)

	eodTick := time.NewTicker(60 * time.Second)
	defer eodTick.Stop()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	logger.Info(ctx, "Bot started", "mode", cfg.Mode, "poll_seconds", cfg.PollSeconds)

loop:
	for {
		select {
		case <-eodTick.C:
			if ok, _ := eod.ShouldRunNow(); ok {
				if p, err := eod.SummarizeToday(); err == nil && p != "" {
					logger.Info(ctx, "EOD CSV written", "path", p)
				}
			}
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			break loop
		}
	}

	sched.Stop(ctx)
	if p, err := eod.SummarizeToday(); err == nil && p != "" {
		logger.Info(ctx, "EOD CSV written", "path", p)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := trace.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
