package interfaces

import (
	"context"

	"news-trading-bot/internal/types"
)

// Engine runs one orchestration tick. Exactly one branch of the tick executes
// per invocation; the scheduler guarantees ticks never overlap.
type Engine interface {
	Tick(ctx context.Context) (*types.TickResult, error)
}
