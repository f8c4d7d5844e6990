package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/types"
)

// DecisionCache memoizes strategy decisions by news ID so each distinct news
// event is evaluated at most once, however expensive or non-deterministic the
// strategy is. Every Set is written through to disk immediately.
type DecisionCache struct {
	path string
	data map[string]cachedDecision
}

type cachedDecision struct {
	Action     string    `json:"action"`
	Ticker     string    `json:"ticker,omitempty"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	CachedAt   time.Time `json:"cached_at"`
}

// LoadDecisionCache reads the cache file if present. Entries older than ttl
// are evicted at load time; ttl <= 0 keeps everything forever. Unlike the
// position state, a corrupt cache file is recoverable: it only costs repeated
// strategy evaluations, so it is logged and reset rather than treated as fatal.
func LoadDecisionCache(ctx context.Context, path string, ttl time.Duration) *DecisionCache {
	c := &DecisionCache{path: path, data: map[string]cachedDecision{}}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c
	}
	if err != nil {
		logger.Warn(ctx, "Failed to read decision cache, starting empty", "path", path, "error", err)
		return c
	}
	if err := json.Unmarshal(b, &c.data); err != nil {
		logger.Warn(ctx, "Decision cache is corrupt, starting empty", "path", path, "error", err)
		c.data = map[string]cachedDecision{}
		return c
	}

	if ttl > 0 {
		cutoff := time.Now().Add(-ttl)
		evicted := 0
		for id, d := range c.data {
			if d.CachedAt.Before(cutoff) {
				delete(c.data, id)
				evicted++
			}
		}
		if evicted > 0 {
			logger.Info(ctx, "Evicted expired decision cache entries", "evicted", evicted, "remaining", len(c.data))
			if err := c.save(); err != nil {
				logger.Warn(ctx, "Failed to rewrite decision cache after eviction", "error", err)
			}
		}
	}

	logger.Info(ctx, "Decision cache loaded", "entries", len(c.data), "path", path)
	return c
}

// Get returns the cached decision for a news ID, if any.
func (c *DecisionCache) Get(newsID string) (types.Decision, bool) {
	d, ok := c.data[newsID]
	if !ok {
		return types.Decision{}, false
	}
	return types.Decision{
		Action:     d.Action,
		Ticker:     d.Ticker,
		Confidence: d.Confidence,
		Reason:     d.Reason,
	}, true
}

// Set stores a decision and persists the cache immediately.
func (c *DecisionCache) Set(newsID string, d types.Decision) error {
	c.data[newsID] = cachedDecision{
		Action:     d.Action,
		Ticker:     d.Ticker,
		Confidence: d.Confidence,
		Reason:     d.Reason,
		CachedAt:   time.Now(),
	}
	return c.save()
}

// Len returns the number of cached decisions.
func (c *DecisionCache) Len() int { return len(c.data) }

func (c *DecisionCache) save() error {
	if c.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(c.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write decision cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
