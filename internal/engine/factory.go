package engine

import (
	"time"

	"news-trading-bot/internal/interfaces"
	"news-trading-bot/internal/store"
)

func New(cfg *store.Config, state *store.State, cache *store.DecisionCache, brk interfaces.Broker, feed interfaces.NewsFeed, strat interfaces.Strategy) interfaces.Engine {
	return &engine{
		cfg:   cfg,
		state: state,
		cache: cache,
		brk:   brk,
		feed:  feed,
		strat: strat,
		now:   time.Now,
	}
}
