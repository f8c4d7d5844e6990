package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// US regular session in UTC: 09:30 to 16:00 Eastern during daylight saving.
const (
	marketOpenMinuteUTC  = 14*60 + 30
	marketCloseMinuteUTC = 21 * 60
)

// isUSMarketOpen reports whether t falls inside the regular US equity
// session. The check is a fixed UTC window and a weekday test; holidays are
// handled downstream by order rejection.
func isUSMarketOpen(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	minute := t.Hour()*60 + t.Minute()
	return minute >= marketOpenMinuteUTC && minute < marketCloseMinuteUTC
}

// slippedPrice adjusts a price by pct percent. A positive pct pads a buy
// limit above the market, a negative pct pads a sell limit below it. The
// math runs in decimal so percentage adjustments stay exact.
func slippedPrice(price, pct float64) float64 {
	return applyPct(price, pct)
}

// breakoutPrice is the level the market must reach above the news reference
// price before an entry is allowed.
func breakoutPrice(reference, pct float64) float64 {
	return applyPct(reference, pct)
}

func applyPct(price, pct float64) float64 {
	factor := decimal.NewFromInt(1).Add(decimal.NewFromFloat(pct).Div(decimal.NewFromInt(100)))
	v, _ := decimal.NewFromFloat(price).Mul(factor).Round(4).Float64()
	return v
}
