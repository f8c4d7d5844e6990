package interfaces

import (
	"context"

	"news-trading-bot/internal/types"
)

// NewsFeed yields the current trending headlines, most prominent first.
type NewsFeed interface {
	TopN(ctx context.Context, n int) ([]types.NewsItem, error)
}
