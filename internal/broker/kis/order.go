package kis

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/types"
)

type orderResponse struct {
	RtCd   string `json:"rt_cd"`
	Msg1   string `json:"msg1"`
	Output struct {
		OrderNo string `json:"ODNO"`
	} `json:"output"`
}

// PlaceLimitOrder submits a limit order. In dry-run mode the order is accepted
// unconditionally with a synthetic id and the broker is never contacted. A
// broker-side rejection (rt_cd != 0) returns Accepted=false, not an error.
func (c *Client) PlaceLimitOrder(ctx context.Context, req types.OrderReq) (types.OrderResult, error) {
	if c.DryRun() {
		res := types.OrderResult{
			Accepted: true,
			OrderID:  "DRY-" + uuid.NewString(),
			Message:  "dry_run",
		}
		logger.Warn(ctx, "[DRY-RUN] order simulated",
			"side", req.Side,
			"ticker", req.Ticker,
			"qty", req.Qty,
			"limit_price", req.LimitPrice,
			"order_id", res.OrderID,
		)
		return res, nil
	}

	trID := "TTTC0802U" // overseas limit buy
	divCode := "01"
	if req.Side == types.SideSell {
		trID = "TTTC0801U"
		divCode = "02"
	}

	body := map[string]string{
		"CANO":            c.p.CANO,
		"ACNT_PRDT_CD":    c.p.AcntPrdtCd,
		"OVRS_EXCG_CD":    c.p.Exchange,
		"PDNO":            strings.ToUpper(req.Ticker),
		"ORD_QTY":         strconv.Itoa(req.Qty),
		"ORD_UNPR":        formatPrice(req.LimitPrice),
		"SLL_BUY_DVSN_CD": divCode,
		"ORD_DVSN_CD":     "00", // limit order
	}

	var out orderResponse
	// gt_uid makes retried submissions idempotent on the broker side.
	err := c.request(ctx, http.MethodPost, "/uapi/overseas-stock/v1/trading/order", trID,
		nil, body, map[string]string{"gt_uid": uuid.NewString()}, &out)
	if err != nil {
		return types.OrderResult{}, err
	}

	if out.RtCd != "0" {
		logger.Error(ctx, "KIS order rejected",
			"side", req.Side,
			"ticker", req.Ticker,
			"qty", req.Qty,
			"limit_price", req.LimitPrice,
			"msg", out.Msg1,
		)
		return types.OrderResult{Accepted: false, Message: out.Msg1}, nil
	}

	logger.Info(ctx, "KIS order accepted",
		"side", req.Side,
		"ticker", req.Ticker,
		"qty", req.Qty,
		"limit_price", req.LimitPrice,
		"order_id", out.Output.OrderNo,
	)
	return types.OrderResult{Accepted: true, OrderID: out.Output.OrderNo, Message: out.Msg1}, nil
}

// formatPrice renders a limit price the way the order endpoint expects it:
// a plain decimal string rounded to cents.
func formatPrice(p float64) string {
	return decimal.NewFromFloat(p).Round(2).String()
}
