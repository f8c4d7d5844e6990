package engine

import (
	"context"
	"time"

	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/store"
	"news-trading-bot/internal/tradelog"
	"news-trading-bot/internal/types"
)

type engine struct {
	cfg   *store.Config
	state *store.State
	cache *store.DecisionCache
	brk   interfaces.Broker
	feed  interfaces.NewsFeed
	strat interfaces.Strategy

	now func() time.Time
}

// Tick runs one orchestration pass. The branches are checked in strict
// priority order and exactly one executes: an outstanding order is resolved
// before anything else, an open position is managed before new entries are
// considered, and no entry is attempted while the broker reports real
// holdings. Any external failure degrades the tick to a no-op; the state
// machine only moves on confirmed outcomes.
func (e *engine) Tick(ctx context.Context) (*types.TickResult, error) {
	switch e.state.Position {
	case store.PositionPending:
		return e.tickPending(ctx)
	case store.PositionHolding:
		return e.tickHolding(ctx)
	default:
		return e.tickNone(ctx)
	}
}

// tickPending resolves an outstanding entry order: confirm the fill, or
// cancel locally once the pending timeout expires.
func (e *engine) tickPending(ctx context.Context) (*types.TickResult, error) {
	res := &types.TickResult{Branch: types.BranchPending, Ticker: e.state.Ticker}

	filled := false
	if e.cfg.DryRun() {
		filled = true
	} else {
		f, err := e.brk.OrderFilled(ctx, e.state.PendingOrderID)
		if err != nil {
			logger.Warn(ctx, "Fill check failed, retrying next tick", "order_id", e.state.PendingOrderID, "error", err)
			res.Reason = "fill check failed"
			return res, nil
		}
		filled = f
	}

	if filled {
		ticker, entry, orderID := e.state.Ticker, e.state.EntryPrice, e.state.PendingOrderID
		if err := e.state.ConfirmFilled(e.cfg.Trade.TakeProfitPct, e.cfg.Trade.StopLossPct); err != nil {
			return nil, err
		}
		logger.Trade(ctx, types.EventFill, ticker, types.SideBuy, e.cfg.Trade.TickerQuantity, entry, orderID,
			"take_profit_price", e.state.TakeProfitPrice,
			"stop_loss_price", e.state.StopLossPrice,
		)
		_ = tradelog.Append(tradelog.Entry{
			Event: types.EventFill, Ticker: ticker, Side: types.SideBuy,
			Qty: e.cfg.Trade.TickerQuantity, Price: entry,
		})
		res.Event = types.EventFill
		res.Price = entry
		return res, nil
	}

	timeout := time.Duration(e.cfg.Trade.OrderPendingTimeoutSec) * time.Second
	if elapsed := e.state.PendingElapsed(e.now()); elapsed >= timeout {
		orderID := e.state.PendingOrderID
		// Broker-side cancellation is best-effort only; the resting order may
		// still fill after this point and will show up in reconciliation.
		logger.Warn(ctx, "Pending order timed out, cancelling locally",
			"order_id", orderID,
			"ticker", e.state.Ticker,
			"elapsed", elapsed.String(),
		)
		ticker := e.state.Ticker
		if err := e.state.CancelPending(); err != nil {
			return nil, err
		}
		logger.Trade(ctx, types.EventTimeout, ticker, types.SideBuy, e.cfg.Trade.TickerQuantity, 0, orderID)
		_ = tradelog.Append(tradelog.Entry{Event: types.EventTimeout, Ticker: ticker, Side: types.SideBuy})
		res.Event = types.EventTimeout
		return res, nil
	}

	res.Reason = "awaiting fill"
	return res, nil
}

// tickHolding checks the stored take-profit/stop-loss thresholds and exits on
// a breach. The thresholds were fixed at fill time and are never recomputed.
func (e *engine) tickHolding(ctx context.Context) (*types.TickResult, error) {
	res := &types.TickResult{Branch: types.BranchHolding, Ticker: e.state.Ticker}

	price, err := e.brk.CurrentPrice(ctx, e.state.Ticker)
	if err != nil {
		res.Reason = "price unavailable"
		return res, nil
	}
	res.Price = price

	var event string
	switch {
	case price >= e.state.TakeProfitPrice:
		event = types.EventTakeProfit
	case price <= e.state.StopLossPrice:
		event = types.EventStopLoss
	default:
		res.Reason = "within thresholds"
		return res, nil
	}

	// Slip the sell limit below the current price to encourage an immediate
	// fill.
	limit := slippedPrice(price, -e.cfg.Trade.SellLimitSlipPct)
	order, err := e.brk.PlaceLimitOrder(ctx, types.OrderReq{
		Side:       types.SideSell,
		Ticker:     e.state.Ticker,
		Qty:        e.cfg.Trade.TickerQuantity,
		LimitPrice: limit,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Exit order failed, staying in position", err, "event", event, "ticker", e.state.Ticker)
		res.Reason = "exit order failed"
		return res, nil
	}
	if !order.Accepted {
		logger.Error(ctx, "Exit order rejected, staying in position",
			"event", event,
			"ticker", e.state.Ticker,
			"message", order.Message,
		)
		res.Reason = "exit order rejected"
		return res, nil
	}

	ticker := e.state.Ticker
	if err := e.state.ExitPosition(); err != nil {
		return nil, err
	}
	logger.Trade(ctx, event, ticker, types.SideSell, e.cfg.Trade.TickerQuantity, limit, order.OrderID, "trigger_price", price)
	_ = tradelog.Append(tradelog.Entry{
		Event: event, Ticker: ticker, Side: types.SideSell,
		Qty: e.cfg.Trade.TickerQuantity, Price: limit, OrderID: order.OrderID,
	})
	res.Event = event
	return res, nil
}

// tickNone reconciles against the broker's real holdings, then evaluates the
// current news cycle for a new entry.
func (e *engine) tickNone(ctx context.Context) (*types.TickResult, error) {
	positions, err := e.brk.OpenPositions(ctx)
	if err != nil {
		return &types.TickResult{Branch: types.BranchReconcile, Reason: "positions unavailable"}, nil
	}
	if len(positions) > 0 {
		// External or manual holdings are authoritative; never stack a second
		// position on top of them.
		logger.Warn(ctx, "Broker reports open positions while local state is NONE, skipping tick", "count", len(positions))
		return &types.TickResult{Branch: types.BranchReconcile, Reason: "broker positions exist"}, nil
	}

	return e.tickAcquisition(ctx)
}

func (e *engine) tickAcquisition(ctx context.Context) (*types.TickResult, error) {
	res := &types.TickResult{Branch: types.BranchAcquisition}

	news, err := e.feed.TopN(ctx, e.cfg.News.TopN)
	if err != nil {
		logger.Warn(ctx, "News fetch failed, skipping tick", "error", err)
		res.Reason = "news unavailable"
		return res, nil
	}
	if len(news) == 0 {
		res.Reason = "no news"
		return res, nil
	}

	ids := make([]string, len(news))
	for i, n := range news {
		ids[i] = n.ID
	}
	isNew := e.state.IsNewTop3(ids)
	// Persist the seen ids even when stale so a restart never reprocesses an
	// old cycle.
	if err := e.state.SetTop3(ids); err != nil {
		return nil, err
	}
	if !isNew {
		res.Reason = "news already seen"
		return res, nil
	}

	top := news[0]
	decision, err := e.decideFor(ctx, top.ID, news)
	if err != nil {
		res.Reason = "strategy unavailable"
		return res, nil
	}
	res.Decision = &decision

	if decision.Action != types.ActionBuy {
		res.Reason = "decision is " + decision.Action
		return res, nil
	}
	if decision.Confidence < e.cfg.Strategy.MinConfidence {
		res.Reason = "confidence below threshold"
		return res, nil
	}
	ticker := decision.Ticker
	res.Ticker = ticker

	if e.state.HasTraded(ticker) {
		logger.Info(ctx, "Ticker already traded, skipping", "ticker", ticker)
		res.Reason = "ticker already traded"
		return res, nil
	}
	if !isUSMarketOpen(e.now().UTC()) {
		res.Reason = "market closed"
		return res, nil
	}

	price, err := e.brk.CurrentPrice(ctx, ticker)
	if err != nil {
		res.Reason = "price unavailable"
		return res, nil
	}
	res.Price = price

	if !e.state.HasNewsReference() {
		if err := e.state.SetNewsReference(price, e.now()); err != nil {
			return nil, err
		}
		logger.Info(ctx, "News reference price captured", "ticker", ticker, "price", price)
	}

	breakout := breakoutPrice(e.state.NewsReferencePrice, e.cfg.Trade.BuyBreakoutPct)
	if price < breakout {
		res.Reason = "below breakout"
		logger.Info(ctx, "Price below breakout threshold",
			"ticker", ticker,
			"price", price,
			"reference", e.state.NewsReferencePrice,
			"breakout", breakout,
		)
		return res, nil
	}

	limit := slippedPrice(price, e.cfg.Trade.BuyLimitSlipPct)
	order, err := e.brk.PlaceLimitOrder(ctx, types.OrderReq{
		Side:       types.SideBuy,
		Ticker:     ticker,
		Qty:        e.cfg.Trade.TickerQuantity,
		LimitPrice: limit,
	})
	if err != nil {
		logger.ErrorWithErr(ctx, "Entry order failed", err, "ticker", ticker)
		res.Reason = "entry order failed"
		return res, nil
	}
	if !order.Accepted {
		logger.Error(ctx, "Entry order rejected", "ticker", ticker, "message", order.Message)
		res.Reason = "entry order rejected"
		return res, nil
	}

	if err := e.state.EnterPending(ticker, limit, order.OrderID, e.now()); err != nil {
		return nil, err
	}
	logger.Trade(ctx, types.EventEntry, ticker, types.SideBuy, e.cfg.Trade.TickerQuantity, limit, order.OrderID,
		"news_id", top.ID,
		"confidence", decision.Confidence,
	)
	_ = tradelog.Append(tradelog.Entry{
		Event: types.EventEntry, Ticker: ticker, Side: types.SideBuy,
		Qty: e.cfg.Trade.TickerQuantity, Price: limit, OrderID: order.OrderID,
		Reason: decision.Reason, Confidence: decision.Confidence,
	})
	res.Event = types.EventEntry
	return res, nil
}

// decideFor returns the decision for a news cycle, consulting the strategy
// only on a cache miss so each news id is evaluated at most once.
func (e *engine) decideFor(ctx context.Context, newsID string, news []types.NewsItem) (types.Decision, error) {
	if d, ok := e.cache.Get(newsID); ok {
		logger.Debug(ctx, "Using cached decision", "news_id", newsID, "action", d.Action)
		return d, nil
	}

	d, err := e.strat.Evaluate(ctx, news, e.state.Position)
	if err != nil {
		logger.ErrorWithErr(ctx, "Strategy evaluation failed", err, "news_id", newsID)
		return types.Decision{}, err
	}

	if err := e.cache.Set(newsID, d); err != nil {
		logger.Warn(ctx, "Failed to persist decision cache", "news_id", newsID, "error", err)
	}
	logger.Decision(ctx, newsID, d.Action, d.Ticker, d.Confidence, d.Reason)
	_ = tradelog.AppendDecision(tradelog.DecisionEntry{
		NewsID: newsID, Action: d.Action, Ticker: d.Ticker,
		Confidence: d.Confidence, Reason: d.Reason,
	})
	return d, nil
}
