package interfaces

import (
	"context"

	"news-trading-bot/internal/types"
)

// Broker is the brokerage gateway consumed by the engine. Implementations own
// authentication and token refresh; an expired token is refreshed transparently
// and never surfaces to callers.
type Broker interface {
	// PlaceLimitOrder submits a limit order. A broker-side rejection comes back
	// as Accepted=false with the broker's message; err is reserved for
	// transport-level failures.
	PlaceLimitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error)
	// CurrentPrice returns the last traded price for the ticker.
	CurrentPrice(ctx context.Context, ticker string) (float64, error)
	// OpenPositions returns broker-side holdings keyed by ticker.
	OpenPositions(ctx context.Context) (map[string]types.Holding, error)
	// OrderFilled reports whether the order has any executed quantity.
	OrderFilled(ctx context.Context, orderID string) (bool, error)
}
