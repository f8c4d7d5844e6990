package kis

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/types"
)

type priceResponse struct {
	RtCd   string `json:"rt_cd"`
	Msg1   string `json:"msg1"`
	Output struct {
		Last  string `json:"last"`
		PLast string `json:"p_last"`
		Base  string `json:"base"`
	} `json:"output"`
}

// CurrentPrice returns the last traded price, falling back through the
// previous-session and base prices when the primary field is empty (the feed
// blanks "last" outside regular hours).
func (c *Client) CurrentPrice(ctx context.Context, ticker string) (float64, error) {
	var out priceResponse
	err := c.request(ctx, http.MethodGet, "/uapi/overseas-price/v1/quotations/price", "HHDFS00000300",
		map[string]string{
			"AUTH": "",
			"EXCD": c.priceExchangeCode(),
			"SYMB": strings.ToUpper(ticker),
		}, nil, nil, &out)
	if err != nil {
		return 0, err
	}

	for _, raw := range []string{out.Output.Last, out.Output.PLast, out.Output.Base} {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil && v > 0 {
			return v, nil
		}
	}
	logger.Warn(ctx, "KIS returned no valid price", "ticker", ticker, "msg", out.Msg1)
	return 0, ErrUnavailable
}

type balanceResponse struct {
	RtCd    string `json:"rt_cd"`
	Msg1    string `json:"msg1"`
	Output1 []struct {
		Ticker   string `json:"ovrs_pdno"`
		Qty      string `json:"ovrs_cblc_qty"`
		AvgPrice string `json:"pchs_avg_pric"`
	} `json:"output1"`
}

// OpenPositions returns the broker-side holdings with a positive quantity.
func (c *Client) OpenPositions(ctx context.Context) (map[string]types.Holding, error) {
	var out balanceResponse
	err := c.request(ctx, http.MethodGet, "/uapi/overseas-stock/v1/trading/inquire-balance", "TTTS3012R",
		map[string]string{
			"CANO":           c.p.CANO,
			"ACNT_PRDT_CD":   c.p.AcntPrdtCd,
			"OVRS_EXCG_CD":   c.p.Exchange,
			"TR_CRCY_CD":     "USD",
			"CTX_AREA_FK200": "",
			"CTX_AREA_NK200": "",
		}, nil, nil, &out)
	if err != nil {
		return nil, err
	}

	positions := map[string]types.Holding{}
	for _, item := range out.Output1 {
		qty, _ := strconv.Atoi(strings.TrimSpace(item.Qty))
		avg, _ := strconv.ParseFloat(strings.TrimSpace(item.AvgPrice), 64)
		if item.Ticker != "" && qty > 0 {
			positions[item.Ticker] = types.Holding{Qty: qty, AvgPrice: avg}
		}
	}
	return positions, nil
}

type executionResponse struct {
	RtCd    string `json:"rt_cd"`
	Msg1    string `json:"msg1"`
	Output1 []struct {
		FilledQty string `json:"ft_ccld_qty"`
	} `json:"output1"`
}

// OrderFilled reports whether the order has any executed quantity.
func (c *Client) OrderFilled(ctx context.Context, orderID string) (bool, error) {
	var out executionResponse
	err := c.request(ctx, http.MethodGet, "/uapi/overseas-stock/v1/trading/inquire-ccnl", "TTTS3035R",
		map[string]string{
			"CANO":           c.p.CANO,
			"ACNT_PRDT_CD":   c.p.AcntPrdtCd,
			"ODNO":           orderID,
			"CTX_AREA_FK200": "",
			"CTX_AREA_NK200": "",
		}, nil, nil, &out)
	if err != nil {
		return false, err
	}
	if out.RtCd != "0" {
		logger.Warn(ctx, "KIS execution inquiry rejected", "order_id", orderID, "rt_cd", out.RtCd, "msg", out.Msg1)
		return false, nil
	}

	filled := 0
	for _, item := range out.Output1 {
		q, _ := strconv.Atoi(strings.TrimSpace(item.FilledQty))
		filled += q
	}
	return filled > 0, nil
}
