package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"news-trading-bot/internal/types"
)

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decisions.json")
	c := LoadDecisionCache(ctx, path, 0)

	d := types.Decision{Action: types.ActionBuy, Ticker: "AAPL", Confidence: 0.8, Reason: "strong headline"}
	if err := c.Set("news-1", d); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Two consecutive gets must return the same decision; the cache is the
	// mechanism that keeps strategy invocations at-most-once per news id.
	for i := 0; i < 2; i++ {
		got, ok := c.Get("news-1")
		if !ok {
			t.Fatal("Expected cache hit")
		}
		if got != d {
			t.Errorf("Expected %+v, got %+v", d, got)
		}
	}

	if _, ok := c.Get("news-2"); ok {
		t.Error("Expected miss for unknown id")
	}
}

func TestCacheWriteThrough(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decisions.json")
	c := LoadDecisionCache(ctx, path, 0)

	if err := c.Set("news-1", types.Decision{Action: types.ActionHold, Reason: "no tickers"}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// The entry must already be on disk, with no temp file left behind.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected cache file on disk: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}

	reloaded := LoadDecisionCache(ctx, path, 0)
	got, ok := reloaded.Get("news-1")
	if !ok {
		t.Fatal("Expected entry to survive reload")
	}
	if got.Action != types.ActionHold || got.Reason != "no tickers" {
		t.Errorf("Unexpected reloaded decision: %+v", got)
	}
}

func TestCacheTTLEviction(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decisions.json")

	old := map[string]cachedDecision{
		"stale": {Action: "HOLD", Reason: "old", CachedAt: time.Now().Add(-48 * time.Hour)},
		"fresh": {Action: "BUY", Ticker: "TSLA", Confidence: 0.9, Reason: "new", CachedAt: time.Now()},
	}
	b, err := json.Marshal(old)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := LoadDecisionCache(ctx, path, 24*time.Hour)
	if _, ok := c.Get("stale"); ok {
		t.Error("Expected stale entry to be evicted")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("Expected fresh entry to survive")
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 entry after eviction, got %d", c.Len())
	}
}

func TestCacheCorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "decisions.json")
	if err := os.WriteFile(path, []byte("oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := LoadDecisionCache(ctx, path, 0)
	if c.Len() != 0 {
		t.Errorf("Expected empty cache from corrupt file, got %d entries", c.Len())
	}
}
