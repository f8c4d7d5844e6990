package interfaces

import (
	"context"

	"news-trading-bot/internal/types"
)

// Strategy turns a batch of news items into a trading decision. Implementations
// must tolerate an empty batch (return HOLD) and must degrade to HOLD with a
// diagnostic reason on any internal failure rather than returning an error the
// engine would have to interpret.
type Strategy interface {
	Evaluate(ctx context.Context, news []types.NewsItem, positionState string) (types.Decision, error)
}
