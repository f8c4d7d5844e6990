package engineobs

import (
	"context"
	"time"

	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/trace"
	"news-trading-bot/internal/types"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Tick(ctx context.Context) (*types.TickResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Tick")
	defer span.End()

	start := time.Now()

	logger.DebugSkip(ctx, 1, "Starting tick")

	result, err := oe.engine.Tick(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Tick failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	fields := []any{
		"branch", result.Branch,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if result.Event != "" {
		fields = append(fields, "event", result.Event)
	}
	if result.Ticker != "" {
		fields = append(fields, "ticker", result.Ticker)
	}
	if result.Reason != "" {
		fields = append(fields, "reason", result.Reason)
	}
	logger.InfoSkip(ctx, 1, "Tick completed", fields...)

	return result, nil
}
