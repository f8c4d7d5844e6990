package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"news-trading-bot/internal/types"
)

// tradeLine matches the JSON lines written by the tradelog package.
type tradeLine struct {
	Time       string
	Event      string
	Ticker     string
	Side       string
	Qty        int
	Price      float64
	OrderID    string
	Reason     string
	Confidence float64
}

type aggRow struct {
	Ticker      string
	BuyQty      int
	BuyValue    float64
	SellQty     int
	SellValue   float64
	RealizedPnL float64
}

type eodSummarizer struct{}

// executed reports whether a trade line represents money actually moving.
// ENTRY is only an accepted order and TIMEOUT_CANCEL never executed.
func executed(tl tradeLine) bool {
	switch tl.Event {
	case types.EventFill, types.EventTakeProfit, types.EventStopLoss:
		return true
	}
	return false
}

func (e *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := todaysTradeFile(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var tl tradeLine
		if err := json.Unmarshal(sc.Bytes(), &tl); err != nil {
			continue
		}
		if !executed(tl) {
			continue
		}
		row := aggs[tl.Ticker]
		if row == nil {
			row = &aggRow{Ticker: tl.Ticker}
			aggs[tl.Ticker] = row
		}
		switch tl.Side {
		case types.SideBuy:
			row.BuyQty += tl.Qty
			row.BuyValue += float64(tl.Qty) * tl.Price
		case types.SideSell:
			row.SellQty += tl.Qty
			row.SellValue += float64(tl.Qty) * tl.Price
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	w := csv.NewWriter(out)
	defer w.Flush()

	headers := []string{"ticker", "buy_qty", "buy_avg", "sell_qty", "sell_avg", "realized_pnl", "gross_buy_value", "gross_sell_value"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var totalBuy, totalSell, totalPnL float64
	for _, k := range keys {
		r := aggs[k]
		var buyAvg, sellAvg float64
		if r.BuyQty > 0 {
			buyAvg = r.BuyValue / float64(r.BuyQty)
		}
		if r.SellQty > 0 {
			sellAvg = r.SellValue / float64(r.SellQty)
		}
		matched := r.BuyQty
		if r.SellQty < matched {
			matched = r.SellQty
		}
		r.RealizedPnL = float64(matched) * (sellAvg - buyAvg)
		rec := []string{
			r.Ticker,
			strconv.Itoa(r.BuyQty), fmt.Sprintf("%.4f", buyAvg),
			strconv.Itoa(r.SellQty), fmt.Sprintf("%.4f", sellAvg),
			fmt.Sprintf("%.2f", r.RealizedPnL),
			fmt.Sprintf("%.2f", r.BuyValue), fmt.Sprintf("%.2f", r.SellValue),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuy += r.BuyValue
		totalSell += r.SellValue
		totalPnL += r.RealizedPnL
	}
	_ = w.Write([]string{"TOTAL", "", "", "", "", fmt.Sprintf("%.2f", totalPnL), fmt.Sprintf("%.2f", totalBuy), fmt.Sprintf("%.2f", totalSell)})
	return outPath, nil
}

func (e *eodSummarizer) SummarizeToday() (string, error) {
	return e.SummarizeDay(time.Now().UTC())
}

func (e *eodSummarizer) ShouldRunNow() (bool, string) {
	now := time.Now().UTC()
	outPath := eodCSVPath(now)
	if now.After(marketCloseTime(now)) {
		if _, err := os.Stat(outPath); errors.Is(err, os.ErrNotExist) {
			return true, outPath
		}
	}
	return false, outPath
}
