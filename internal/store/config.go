package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string `yaml:"mode"`
	PollSeconds int    `yaml:"poll_seconds"`

	Trade struct {
		TickerQuantity         int     `yaml:"ticker_quantity"`
		TakeProfitPct          float64 `yaml:"take_profit_pct"`
		StopLossPct            float64 `yaml:"stop_loss_pct"`
		BuyBreakoutPct         float64 `yaml:"buy_breakout_pct"`
		BuyLimitSlipPct        float64 `yaml:"buy_limit_slip_pct"`
		SellLimitSlipPct       float64 `yaml:"sell_limit_slip_pct"`
		OrderPendingTimeoutSec int     `yaml:"order_pending_timeout_sec"`
	} `yaml:"trade"`

	News struct {
		TopN      int    `yaml:"top_n"`
		SourceURL string `yaml:"source_url"`
	} `yaml:"news"`

	Strategy struct {
		Provider      string  `yaml:"provider"`
		Model         string  `yaml:"model"`
		MinConfidence float64 `yaml:"min_confidence"`
		MaxTokens     int     `yaml:"max_tokens"`
		Temperature   float32 `yaml:"temperature"`
	} `yaml:"strategy"`

	KIS struct {
		BaseURL    string `yaml:"base_url"`
		CANO       string `yaml:"cano"`
		AcntPrdtCd string `yaml:"acnt_prdt_cd"`
		Exchange   string `yaml:"exchange"`
	} `yaml:"kis"`

	State struct {
		Dir                   string `yaml:"dir"`
		DecisionCacheTTLHours int    `yaml:"decision_cache_ttl_hours"`
	} `yaml:"state"`
}

func (c *Config) DryRun() bool { return c.Mode == "DRY_RUN" }

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive, got %d", c.PollSeconds)
	}
	if c.Trade.TickerQuantity <= 0 {
		return fmt.Errorf("trade.ticker_quantity must be positive, got %d", c.Trade.TickerQuantity)
	}
	if c.Trade.TakeProfitPct <= 0 || c.Trade.TakeProfitPct > 100 {
		return fmt.Errorf("trade.take_profit_pct must be between 0-100, got %.2f", c.Trade.TakeProfitPct)
	}
	if c.Trade.StopLossPct <= 0 || c.Trade.StopLossPct >= 100 {
		return fmt.Errorf("trade.stop_loss_pct must be between 0-100, got %.2f", c.Trade.StopLossPct)
	}
	if c.Trade.BuyBreakoutPct < 0 {
		return fmt.Errorf("trade.buy_breakout_pct must not be negative, got %.2f", c.Trade.BuyBreakoutPct)
	}
	if c.Trade.OrderPendingTimeoutSec <= 0 {
		return fmt.Errorf("trade.order_pending_timeout_sec must be positive, got %d", c.Trade.OrderPendingTimeoutSec)
	}
	if c.Strategy.Provider != "RULE" && c.Strategy.Provider != "OPENAI" {
		return fmt.Errorf("strategy.provider must be 'RULE' or 'OPENAI', got '%s'", c.Strategy.Provider)
	}
	if c.Strategy.MinConfidence < 0 || c.Strategy.MinConfidence > 1 {
		return fmt.Errorf("strategy.min_confidence must be between 0-1, got %.2f", c.Strategy.MinConfidence)
	}
	if c.Mode == "LIVE" && c.KIS.CANO == "" {
		return fmt.Errorf("kis.cano is required in LIVE mode")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.News.TopN == 0 {
		c.News.TopN = 3
	}
	if c.News.SourceURL == "" {
		c.News.SourceURL = "https://www.stocktitan.net/news/trending.html"
	}
	if c.Trade.OrderPendingTimeoutSec == 0 {
		c.Trade.OrderPendingTimeoutSec = 30
	}
	if c.Strategy.Provider == "" {
		c.Strategy.Provider = "RULE"
	}
	if c.Strategy.Model == "" {
		c.Strategy.Model = "gpt-4o-mini"
	}
	if c.Strategy.MaxTokens == 0 {
		c.Strategy.MaxTokens = 300
	}
	if c.KIS.BaseURL == "" {
		c.KIS.BaseURL = "https://openapi.koreainvestment.com:9443"
	}
	if c.KIS.AcntPrdtCd == "" {
		c.KIS.AcntPrdtCd = "01"
	}
	if c.KIS.Exchange == "" {
		c.KIS.Exchange = "NASD"
	}
	if c.State.Dir == "" {
		c.State.Dir = "state"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
