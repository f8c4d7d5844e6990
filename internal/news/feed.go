package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"news-trading-bot/internal/logger"
	"news-trading-bot/internal/types"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Feed scrapes the trending-news page and yields the current top headlines.
// Item IDs are derived from the article URL slug, which is stable across polls
// for the same article and distinct across different ones.
type Feed struct {
	sourceURL string
	timeout   time.Duration
}

func NewFeed(sourceURL string) *Feed {
	return &Feed{
		sourceURL: sourceURL,
		timeout:   20 * time.Second,
	}
}

// TopN fetches the page and returns up to n items in page order.
func (f *Feed) TopN(ctx context.Context, n int) ([]types.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(colly.UserAgent(userAgent))
	c.SetRequestTimeout(f.timeout)

	var items []types.NewsItem
	c.OnHTML("body", func(e *colly.HTMLElement) {
		items = collectItems(e.DOM, n)
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(f.sourceURL); err != nil {
		return nil, fmt.Errorf("fetch trending news: %w", err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch trending news: %w", fetchErr)
	}

	logger.Debug(ctx, "Trending news fetched", "items", len(items), "source", f.sourceURL)
	return items, nil
}

// collectItems extracts up to n news items from the trending page DOM.
func collectItems(root *goquery.Selection, n int) []types.NewsItem {
	var items []types.NewsItem

	root.Find("article, li.news-item, div.news-row").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find("a[href*='/news/']").First()
		href, _ := link.Attr("href")

		title := strings.TrimSpace(link.Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h1, h2, h3").First().Text())
		}

		id := itemID(href)
		if id == "" || title == "" {
			return true
		}

		items = append(items, types.NewsItem{
			ID:      id,
			Title:   title,
			Tickers: extractTickers(s),
		})
		return len(items) < n
	})

	return items
}

// itemID derives a stable identifier from an article link: the final path
// segment with any ".html" suffix removed.
func itemID(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return ""
	}
	segs := strings.Split(path, "/")
	id := strings.TrimSuffix(segs[len(segs)-1], ".html")
	return id
}

// extractTickers pulls the symbol badges off one news row, deduplicated in
// page order.
func extractTickers(s *goquery.Selection) []string {
	seen := map[string]struct{}{}
	var tickers []string

	s.Find("a[href*='/stocks/'], .symbol, .ticker").Each(func(_ int, t *goquery.Selection) {
		sym := strings.ToUpper(strings.TrimSpace(t.Text()))
		sym = strings.TrimPrefix(sym, "$")
		if sym == "" || len(sym) > 6 || !isTickerSymbol(sym) {
			return
		}
		if _, ok := seen[sym]; ok {
			return
		}
		seen[sym] = struct{}{}
		tickers = append(tickers, sym)
	})

	return tickers
}

func isTickerSymbol(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && r != '.' && r != '-' {
			return false
		}
	}
	return true
}
