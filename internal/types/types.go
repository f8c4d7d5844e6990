package types

// NewsItem is one trending headline. ID is stable across polls for the same
// underlying article and is used for dedup and decision-cache keying.
type NewsItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Tickers []string `json:"tickers"`
}

const (
	ActionBuy  = "BUY"
	ActionHold = "HOLD"
)

// Decision is the immutable output of a Strategy evaluation.
type Decision struct {
	Action     string  `json:"action"`
	Ticker     string  `json:"ticker,omitempty"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// OrderReq is a limit order request. Market orders are not supported.
type OrderReq struct {
	Side       string
	Ticker     string
	Qty        int
	LimitPrice float64
}

// OrderResult reports whether the broker accepted an order. A rejection is not
// an error at the transport level; callers must check Accepted.
type OrderResult struct {
	Accepted bool   `json:"accepted"`
	OrderID  string `json:"order_id,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Holding is one broker-side open position as reported by the balance query.
type Holding struct {
	Qty      int     `json:"qty"`
	AvgPrice float64 `json:"avg_price"`
}

// Tick branch names, used for logging and TickResult reporting.
const (
	BranchPending     = "PENDING"
	BranchHolding     = "HOLDING"
	BranchReconcile   = "RECONCILE"
	BranchAcquisition = "ACQUISITION"
)

// Position lifecycle events emitted by the engine.
const (
	EventEntry      = "ENTRY"
	EventFill       = "FILL"
	EventTimeout    = "TIMEOUT_CANCEL"
	EventTakeProfit = "TAKE_PROFIT"
	EventStopLoss   = "STOP_LOSS"
)

// TickResult summarizes what a single engine tick did.
type TickResult struct {
	Branch   string    `json:"branch"`
	Event    string    `json:"event,omitempty"`
	Ticker   string    `json:"ticker,omitempty"`
	Price    float64   `json:"price,omitempty"`
	Decision *Decision `json:"decision,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}
