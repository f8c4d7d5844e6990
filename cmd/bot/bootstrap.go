package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"news-trading-bot/internal/broker/brokerobs"
	"news-trading-bot/internal/broker/kis"
	"news-trading-bot/internal/engine"
	"news-trading-bot/internal/engine/engineobs"
	"news-trading-bot/internal/eod"
	"news-trading-bot/internal/eod/eodobs"
	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/llm"
	"news-trading-bot/internal/llm/llmobs"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/news"
	"news-trading-bot/internal/store"
	"news-trading-bot/internal/trace"
	"news-trading-bot/internal/tradelog"
)

// initializeSystem initializes logger, tracer, and the EOD summarizer.
func initializeSystem() error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	eod.SetDefaultSummarizer(eodobs.Wrap(eod.NewSummarizer()))

	return nil
}

// compressOldLogs compresses old tradelog files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// buildEngine wires the persistent stores, the broker gateway, the news feed
// and the strategy into an observable engine.
func buildEngine(ctx context.Context, cfg *store.Config) (interfaces.Engine, error) {
	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	state, err := store.LoadState(filepath.Join(cfg.State.Dir, "position.json"))
	if err != nil {
		// A corrupt state file means the bot no longer knows what it owns.
		// Refusing to start is safer than trading blind.
		return nil, fmt.Errorf("failed to load position state: %w", err)
	}
	logger.Info(ctx, "Position state loaded", "position", state.Position, "ticker", state.Ticker)

	ttl := time.Duration(cfg.State.DecisionCacheTTLHours) * time.Hour
	cache := store.LoadDecisionCache(ctx, filepath.Join(cfg.State.Dir, "decisions.json"), ttl)
	logger.Info(ctx, "Decision cache loaded", "entries", cache.Len())

	brk := initializeBroker(ctx, cfg)
	strat := initializeStrategy(ctx, cfg)
	feed := news.NewFeed(cfg.News.SourceURL)

	return engineobs.Wrap(engine.New(cfg, state, cache, brk, feed, strat)), nil
}

func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := kis.New(kis.Params{
		Mode:       cfg.Mode,
		BaseURL:    cfg.KIS.BaseURL,
		AppKey:     os.Getenv("KIS_APP_KEY"),
		AppSecret:  os.Getenv("KIS_APP_SECRET"),
		CANO:       cfg.KIS.CANO,
		AcntPrdtCd: cfg.KIS.AcntPrdtCd,
		Exchange:   cfg.KIS.Exchange,
	})

	if cfg.DryRun() {
		logger.Warn(ctx, "Running in DRY_RUN mode, orders will be simulated")
	}

	return brokerobs.Wrap(brk)
}

func initializeStrategy(ctx context.Context, cfg *store.Config) interfaces.Strategy {
	var strat interfaces.Strategy

	switch cfg.Strategy.Provider {
	case "OPENAI":
		strat = llm.NewOpenAIStrategy(cfg)
	default:
		strat = llm.NewRuleStrategy(cfg)
		logger.Info(ctx, "Using rule-based strategy")
	}

	return llmobs.Wrap(strat)
}
