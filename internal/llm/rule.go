package llm

import (
	"context"
	"fmt"

	"news-trading-bot/internal/store"
	"news-trading-bot/internal/types"
)

// RuleStrategy is the deterministic reference strategy: buy the first trending
// headline that names a ticker, with a fixed confidence checked against the
// configured threshold. It exists for dry runs and as a fallback when no LLM
// provider is configured.
type RuleStrategy struct {
	cfg *store.Config
}

func NewRuleStrategy(cfg *store.Config) *RuleStrategy {
	return &RuleStrategy{cfg: cfg}
}

const ruleConfidence = 0.7

func (s *RuleStrategy) Evaluate(ctx context.Context, news []types.NewsItem, positionState string) (types.Decision, error) {
	if len(news) == 0 {
		return types.Decision{Action: types.ActionHold, Reason: "no news"}, nil
	}

	first := news[0]
	if len(first.Tickers) == 0 {
		return types.Decision{Action: types.ActionHold, Reason: "top news has no tickers"}, nil
	}

	if ruleConfidence < s.cfg.Strategy.MinConfidence {
		return types.Decision{
			Action:     types.ActionHold,
			Ticker:     first.Tickers[0],
			Confidence: ruleConfidence,
			Reason:     fmt.Sprintf("confidence %.2f below threshold %.2f", ruleConfidence, s.cfg.Strategy.MinConfidence),
		}, nil
	}

	return types.Decision{
		Action:     types.ActionBuy,
		Ticker:     first.Tickers[0],
		Confidence: ruleConfidence,
		Reason:     "trending: " + first.Title,
	}, nil
}
