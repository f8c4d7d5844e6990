package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Position lifecycle states.
const (
	PositionNone    = "NONE"
	PositionPending = "ORDER_PENDING"
	PositionHolding = "HOLDING"
)

// State is the persisted position state machine. It is the ground truth for
// what the bot believes it owns and why. All mutation happens on the engine's
// single tick goroutine, so no locking is needed; every mutating method
// persists the full state to disk before returning.
type State struct {
	path string

	Position        string
	Ticker          string
	EntryPrice      float64
	TakeProfitPrice float64
	StopLossPrice   float64

	PendingOrderID string
	PendingSince   *time.Time

	NewsReferencePrice float64
	NewsReferenceTime  *time.Time
	LastTop3NewsIDs    []string

	tradedTickers map[string]struct{}
}

// stateFile is the on-disk schema. The whole record is rewritten on every
// mutation; partial writes are prevented by the temp-file-then-rename save.
type stateFile struct {
	Position           string     `json:"position"`
	Ticker             string     `json:"ticker,omitempty"`
	EntryPrice         float64    `json:"entry_price,omitempty"`
	TakeProfitPrice    float64    `json:"take_profit_price,omitempty"`
	StopLossPrice      float64    `json:"stop_loss_price,omitempty"`
	PendingOrderID     string     `json:"pending_order_id,omitempty"`
	PendingSince       *time.Time `json:"pending_since,omitempty"`
	NewsReferencePrice float64    `json:"news_reference_price,omitempty"`
	NewsReferenceTime  *time.Time `json:"news_reference_time,omitempty"`
	LastTop3NewsIDs    []string   `json:"last_top3_news_ids"`
	TradedTickers      []string   `json:"traded_tickers"`
}

// LoadState reads the persisted state from path, or returns a fresh NONE state
// when no file exists yet. A file that exists but cannot be read or parsed is
// a hard error: silently resetting a trading position is worse than refusing
// to start.
func LoadState(path string) (*State, error) {
	s := &State{
		path:          path,
		Position:      PositionNone,
		tradedTickers: map[string]struct{}{},
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var f stateFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("state file %s is corrupt: %w", path, err)
	}

	s.Position = f.Position
	s.Ticker = f.Ticker
	s.EntryPrice = f.EntryPrice
	s.TakeProfitPrice = f.TakeProfitPrice
	s.StopLossPrice = f.StopLossPrice
	s.PendingOrderID = f.PendingOrderID
	s.PendingSince = f.PendingSince
	s.NewsReferencePrice = f.NewsReferencePrice
	s.NewsReferenceTime = f.NewsReferenceTime
	s.LastTop3NewsIDs = f.LastTop3NewsIDs
	for _, t := range f.TradedTickers {
		s.tradedTickers[t] = struct{}{}
	}

	if err := s.check(); err != nil {
		return nil, fmt.Errorf("state file %s is inconsistent: %w", path, err)
	}
	return s, nil
}

// check enforces the structural invariants of the state machine.
func (s *State) check() error {
	switch s.Position {
	case PositionNone:
		if s.Ticker != "" || s.EntryPrice != 0 {
			return fmt.Errorf("position NONE but ticker=%q entry_price=%v", s.Ticker, s.EntryPrice)
		}
	case PositionPending:
		if s.Ticker == "" || s.EntryPrice == 0 {
			return fmt.Errorf("position %s requires ticker and entry_price", s.Position)
		}
		if s.PendingOrderID == "" || s.PendingSince == nil {
			return fmt.Errorf("position %s requires pending_order_id and pending_since", s.Position)
		}
	case PositionHolding:
		if s.Ticker == "" || s.EntryPrice == 0 {
			return fmt.Errorf("position %s requires ticker and entry_price", s.Position)
		}
		if s.TakeProfitPrice <= 0 || s.StopLossPrice <= 0 {
			return fmt.Errorf("position %s requires take_profit_price and stop_loss_price", s.Position)
		}
	default:
		return fmt.Errorf("unknown position state %q", s.Position)
	}
	return nil
}

// save atomically rewrites the state file (write temp, then rename).
func (s *State) save() error {
	if s.path == "" {
		return nil
	}

	traded := make([]string, 0, len(s.tradedTickers))
	for t := range s.tradedTickers {
		traded = append(traded, t)
	}
	sort.Strings(traded)

	f := stateFile{
		Position:           s.Position,
		Ticker:             s.Ticker,
		EntryPrice:         s.EntryPrice,
		TakeProfitPrice:    s.TakeProfitPrice,
		StopLossPrice:      s.StopLossPrice,
		PendingOrderID:     s.PendingOrderID,
		PendingSince:       s.PendingSince,
		NewsReferencePrice: s.NewsReferencePrice,
		NewsReferenceTime:  s.NewsReferenceTime,
		LastTop3NewsIDs:    s.LastTop3NewsIDs,
		TradedTickers:      traded,
	}

	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// EnterPending transitions NONE -> ORDER_PENDING after a buy order has been
// accepted. The entry ticker joins the traded set immediately so it is never
// re-entered even if the order later times out.
func (s *State) EnterPending(ticker string, limitPrice float64, orderID string, now time.Time) error {
	s.Position = PositionPending
	s.Ticker = ticker
	s.EntryPrice = limitPrice
	s.PendingOrderID = orderID
	s.PendingSince = &now
	s.tradedTickers[ticker] = struct{}{}
	// The breakout baseline has served its purpose once a position opens.
	s.NewsReferencePrice = 0
	s.NewsReferenceTime = nil
	return s.save()
}

// ConfirmFilled transitions ORDER_PENDING -> HOLDING. Take-profit and
// stop-loss prices are computed once here and never recomputed afterwards.
func (s *State) ConfirmFilled(takeProfitPct, stopLossPct float64) error {
	if s.Position != PositionPending {
		return fmt.Errorf("cannot confirm fill from state %s", s.Position)
	}
	s.Position = PositionHolding
	// Decimal keeps the threshold arithmetic exact for round percentages.
	entry := decimal.NewFromFloat(s.EntryPrice)
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	s.TakeProfitPrice, _ = entry.Mul(one.Add(decimal.NewFromFloat(takeProfitPct).Div(hundred))).Round(4).Float64()
	s.StopLossPrice, _ = entry.Mul(one.Sub(decimal.NewFromFloat(stopLossPct).Div(hundred))).Round(4).Float64()
	s.PendingOrderID = ""
	s.PendingSince = nil
	return s.save()
}

// CancelPending transitions ORDER_PENDING -> NONE after the pending timeout.
func (s *State) CancelPending() error {
	s.clearPosition()
	return s.save()
}

// ExitPosition transitions HOLDING -> NONE after an accepted exit order. The
// news reference is cleared so the next news cycle starts a fresh baseline.
func (s *State) ExitPosition() error {
	s.clearPosition()
	s.NewsReferencePrice = 0
	s.NewsReferenceTime = nil
	return s.save()
}

func (s *State) clearPosition() {
	s.Position = PositionNone
	s.Ticker = ""
	s.EntryPrice = 0
	s.TakeProfitPrice = 0
	s.StopLossPrice = 0
	s.PendingOrderID = ""
	s.PendingSince = nil
}

// SetNewsReference captures the breakout baseline, once per news cycle.
func (s *State) SetNewsReference(price float64, t time.Time) error {
	s.NewsReferencePrice = price
	s.NewsReferenceTime = &t
	return s.save()
}

func (s *State) HasNewsReference() bool {
	return s.NewsReferencePrice > 0
}

// IsNewTop3 reports whether ids differ from the last persisted top-3 list.
// Equality is order-sensitive: the same ids in a different order count as new.
func (s *State) IsNewTop3(ids []string) bool {
	return !slices.Equal(ids, s.LastTop3NewsIDs)
}

// SetTop3 persists the current top-3 ids regardless of novelty, so stale
// events are never reprocessed after a restart.
func (s *State) SetTop3(ids []string) error {
	s.LastTop3NewsIDs = slices.Clone(ids)
	return s.save()
}

// HasTraded reports whether the ticker was ever entered (no-repeat policy).
func (s *State) HasTraded(ticker string) bool {
	_, ok := s.tradedTickers[ticker]
	return ok
}

// PendingElapsed returns how long the current order has been outstanding.
func (s *State) PendingElapsed(now time.Time) time.Duration {
	if s.PendingSince == nil {
		return 0
	}
	return now.Sub(*s.PendingSince)
}
