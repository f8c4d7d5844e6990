package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/store"
	"news-trading-bot/internal/types"
)

// OpenAIStrategy asks a chat model to pick the single most attractive ticker
// from the news batch. Any upstream failure or malformed response degrades to
// HOLD with a diagnostic reason; this strategy never returns an error to the
// engine.
type OpenAIStrategy struct {
	cfg  *store.Config
	http *resty.Client
}

func NewOpenAIStrategy(cfg *store.Config) *OpenAIStrategy {
	endpoint := "https://api.openai.com"
	if ep := os.Getenv("OPENAI_API_ENDPOINT"); ep != "" {
		endpoint = ep
	}
	httpc := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(45 * time.Second)
	return &OpenAIStrategy{cfg: cfg, http: httpc}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *OpenAIStrategy) Evaluate(ctx context.Context, news []types.NewsItem, positionState string) (types.Decision, error) {
	if len(news) == 0 {
		return types.Decision{Action: types.ActionHold, Reason: "no news"}, nil
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		logger.Warn(ctx, "OPENAI_API_KEY missing, holding")
		return types.Decision{Action: types.ActionHold, Reason: "openai_api_key_missing"}, nil
	}

	reqBody := map[string]any{
		"model": s.cfg.Strategy.Model,
		"messages": []map[string]string{
			{"role": "system", "content": "You are a US stock trading assistant."},
			{"role": "user", "content": buildPrompt(news)},
		},
		"max_tokens":  s.cfg.Strategy.MaxTokens,
		"temperature": s.cfg.Strategy.Temperature,
	}

	var out chatResponse
	start := time.Now()
	resp, err := s.http.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		SetResult(&out).
		Post("/v1/chat/completions")
	latency := time.Since(start)

	if err != nil {
		logger.ErrorWithErr(ctx, "OpenAI request failed", err, "latency_ms", latency.Milliseconds())
		return types.Decision{Action: types.ActionHold, Reason: "openai_request_failed: " + err.Error()}, nil
	}
	if resp.IsError() {
		logger.Error(ctx, "OpenAI returned error status", "status", resp.StatusCode(), "body", resp.String())
		return types.Decision{Action: types.ActionHold, Reason: fmt.Sprintf("openai_http_%d", resp.StatusCode())}, nil
	}
	if len(out.Choices) == 0 {
		logger.Warn(ctx, "OpenAI response had no choices")
		return types.Decision{Action: types.ActionHold, Reason: "openai_empty_response"}, nil
	}

	content := out.Choices[0].Message.Content
	logger.Debug(ctx, "OpenAI raw response", "content", content, "latency_ms", latency.Milliseconds())

	d := parseDecision(ctx, content)
	logger.Info(ctx, "OpenAI decision received",
		"action", d.Action,
		"ticker", d.Ticker,
		"confidence", d.Confidence,
		"reason", d.Reason,
		"latency_ms", latency.Milliseconds(),
	)
	return d, nil
}

func buildPrompt(news []types.NewsItem) string {
	var b strings.Builder
	b.WriteString("You are given the top trending US stock news.\n\nNews:\n")
	for _, n := range news {
		fmt.Fprintf(&b, "- tickers: %s | title: %s\n", strings.Join(n.Tickers, ","), n.Title)
	}
	b.WriteString(`
Pick the SINGLE most attractive stock to BUY.
If none is attractive, choose HOLD.

Return ONLY valid JSON in the following format:
{
  "action": "BUY" or "HOLD",
  "ticker": "AAPL" or null,
  "confidence": 0.0 to 1.0,
  "reason": "short explanation"
}
`)
	return b.String()
}

// parseDecision locates a JSON object in the model output and unmarshals it.
// Anything unparsable degrades to HOLD.
func parseDecision(ctx context.Context, text string) types.Decision {
	t := strings.TrimSpace(text)

	// Models wrap JSON in fences or prose; take the outermost {...}.
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		logger.Warn(ctx, "No JSON object in model output, defaulting to HOLD", "text", t)
		return types.Decision{Action: types.ActionHold, Reason: "unparsable_model_output"}
	}

	var d types.Decision
	if err := json.Unmarshal([]byte(t[start:end+1]), &d); err != nil {
		logger.Warn(ctx, "Malformed JSON in model output, defaulting to HOLD", "error", err)
		return types.Decision{Action: types.ActionHold, Reason: "malformed_model_json"}
	}

	normalizeDecision(&d)
	return d
}

func normalizeDecision(d *types.Decision) {
	d.Action = strings.ToUpper(strings.TrimSpace(d.Action))
	if d.Action != types.ActionBuy && d.Action != types.ActionHold {
		d.Action = types.ActionHold
	}
	d.Ticker = strings.ToUpper(strings.TrimSpace(d.Ticker))
	if d.Confidence < 0 || d.Confidence > 1 {
		d.Confidence = 0.0
	}
	if d.Action == types.ActionBuy && d.Ticker == "" {
		d.Action = types.ActionHold
		d.Reason = "buy_without_ticker: " + d.Reason
	}
}
