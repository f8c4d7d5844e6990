package brokerobs

import (
	"context"

	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/trace"
	"news-trading-bot/internal/types"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
}

// Compile-time interface check
var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker) interfaces.Broker {
	return &observableBroker{broker: broker}
}

func (ob *observableBroker) PlaceLimitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceLimitOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing limit order",
		"side", req.Side,
		"ticker", req.Ticker,
		"qty", req.Qty,
		"limit_price", req.LimitPrice,
	)

	res, err := ob.broker.PlaceLimitOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place limit order", err,
			"side", req.Side,
			"ticker", req.Ticker,
			"qty", req.Qty,
		)
		return types.OrderResult{}, err
	}

	if !res.Accepted {
		logger.WarnSkip(ctx, 1, "Limit order rejected by broker",
			"side", req.Side,
			"ticker", req.Ticker,
			"message", res.Message,
		)
		return res, nil
	}

	logger.InfoSkip(ctx, 1, "Limit order accepted",
		"side", req.Side,
		"ticker", req.Ticker,
		"order_id", res.OrderID,
	)
	return res, nil
}

func (ob *observableBroker) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "broker.CurrentPrice")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching current price", "ticker", ticker)

	price, err := ob.broker.CurrentPrice(ctx, ticker)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch current price", err, "ticker", ticker)
		return 0, err
	}

	logger.DebugSkip(ctx, 1, "Current price fetched", "ticker", ticker, "price", price)
	return price, nil
}

func (ob *observableBroker) OpenPositions(ctx context.Context) (map[string]types.Holding, error) {
	ctx, span := trace.StartSpan(ctx, "broker.OpenPositions")
	defer span.End()

	positions, err := ob.broker.OpenPositions(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch open positions", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Open positions fetched", "count", len(positions))
	return positions, nil
}

func (ob *observableBroker) OrderFilled(ctx context.Context, orderID string) (bool, error) {
	ctx, span := trace.StartSpan(ctx, "broker.OrderFilled")
	defer span.End()

	filled, err := ob.broker.OrderFilled(ctx, orderID)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to check order fill", err, "order_id", orderID)
		return false, err
	}

	logger.DebugSkip(ctx, 1, "Order fill checked", "order_id", orderID, "filled", filled)
	return filled, nil
}
