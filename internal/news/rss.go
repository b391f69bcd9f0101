// Package news pulls Taiwan financial headlines from RSS feeds and
// filters them per watched instrument.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"gujian/internal/model"
)

// DefaultFeeds are Taiwan financial news RSS sources used when the
// config names none.
var DefaultFeeds = []string{
	"https://news.cnyes.com/rss/v1/news/category/tw_stock",
	"https://www.moneydj.com/kmdj/rssservice/rssurl.aspx?svc=NR&fno=1&arg=X0000000",
}

// Fetcher pulls and parses RSS feeds with a per-feed timeout.
type Fetcher struct {
	Feeds   []string
	Client  *http.Client
	Timeout time.Duration
}

// NewFetcher creates a fetcher for the given feed URLs.
func NewFetcher(feeds []string) *Fetcher {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &Fetcher{
		Feeds:   feeds,
		Client:  &http.Client{Timeout: 30 * time.Second},
		Timeout: 15 * time.Second,
	}
}

// rssDoc covers the RSS 2.0 shape the Taiwan financial feeds serve.
type rssDoc struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
}

// Fetch pulls every configured feed. A failing feed logs a warning and
// is skipped; only all feeds failing is an error. Items return newest
// first.
func (f *Fetcher) Fetch(ctx context.Context) ([]model.NewsItem, error) {
	var items []model.NewsItem
	failures := 0
	for _, feed := range f.Feeds {
		feedItems, err := f.fetchOne(ctx, feed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("[WARN] fetch feed %s: %v", feed, err)
			failures++
			continue
		}
		items = append(items, feedItems...)
	}
	if failures == len(f.Feeds) {
		return nil, fmt.Errorf("all %d feeds failed", len(f.Feeds))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	return items, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, feed string) ([]model.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var doc rssDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rss: %w", err)
	}

	items := make([]model.NewsItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		items = append(items, model.NewsItem{
			Title:     strings.TrimSpace(it.Title),
			Link:      strings.TrimSpace(it.Link),
			Source:    doc.Channel.Title,
			Published: parsePubDate(it.PubDate),
		})
	}
	return items, nil
}

// parsePubDate tries the date layouts seen across the feeds.
// Unparseable dates come back zero rather than erroring the item away.
func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// FilterBySymbol keeps headlines mentioning the stock's symbol or name.
func FilterBySymbol(items []model.NewsItem, symbol, name string) []model.NewsItem {
	var out []model.NewsItem
	for _, it := range items {
		if strings.Contains(it.Title, symbol) || (name != "" && strings.Contains(it.Title, name)) {
			out = append(out, it)
		}
	}
	return out
}
