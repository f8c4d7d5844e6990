package llmobs

import (
	"context"

	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/trace"
	"news-trading-bot/internal/types"
)

// observableStrategy wraps a Strategy with observability (logging & tracing)
type observableStrategy struct {
	strategy interfaces.Strategy
}

// Compile-time interface check
var _ interfaces.Strategy = (*observableStrategy)(nil)

// Wrap wraps a strategy with observability middleware
func Wrap(strategy interfaces.Strategy) interfaces.Strategy {
	return &observableStrategy{strategy: strategy}
}

func (os *observableStrategy) Evaluate(ctx context.Context, news []types.NewsItem, positionState string) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "strategy.Evaluate")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Evaluating news batch", "items", len(news), "position_state", positionState)

	d, err := os.strategy.Evaluate(ctx, news, positionState)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Strategy evaluation failed", err, "items", len(news))
		return types.Decision{}, err
	}

	logger.InfoSkip(ctx, 1, "Strategy evaluated",
		"action", d.Action,
		"ticker", d.Ticker,
		"confidence", d.Confidence,
		"reason", d.Reason,
	)
	return d, nil
}
