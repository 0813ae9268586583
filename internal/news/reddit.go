// Package news aggregates AI/tech items from Reddit RSS feeds and YouTube
// channel uploads, summarizes them in Polish, and persists the results.
package news

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/model"
)

const redditFeedURL = "https://www.reddit.com/r/%s/.rss"

// RedditFetcher pulls subreddit RSS feeds.
type RedditFetcher struct {
	parser  *gofeed.Parser
	baseURL string // feed URL format override for tests
}

// NewRedditFetcher creates a RedditFetcher with a descriptive user agent;
// reddit throttles the default Go one aggressively.
func NewRedditFetcher() *RedditFetcher {
	p := gofeed.NewParser()
	p.UserAgent = "flowassist-news/1.0"
	return &RedditFetcher{parser: p, baseURL: redditFeedURL}
}

// Fetch retrieves the latest entries for each subreddit. A failing feed is
// logged and skipped; the remaining subreddits still contribute.
func (f *RedditFetcher) Fetch(ctx context.Context, subreddits []string) []model.NewsItem {
	var items []model.NewsItem
	for _, sub := range subreddits {
		feed, err := f.parser.ParseURLWithContext(fmt.Sprintf(f.baseURL, sub), ctx)
		if err != nil {
			zap.L().Warn("news: reddit feed failed", zap.String("subreddit", sub), zap.Error(err))
			continue
		}
		for _, entry := range feed.Items {
			items = append(items, mapRedditEntry(sub, entry))
		}
		zap.L().Debug("news: reddit feed fetched",
			zap.String("subreddit", sub), zap.Int("entries", len(feed.Items)))
	}
	return items
}

func mapRedditEntry(sub string, entry *gofeed.Item) model.NewsItem {
	author := "r/" + sub
	if entry.Author != nil && entry.Author.Name != "" {
		author = entry.Author.Name
	}

	published := time.Now().UTC()
	if entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed.UTC()
	} else if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC()
	}

	title := entry.Title
	if title == "" {
		title = "No Title"
	}

	return model.NewsItem{
		ID:              uuid.New().String(),
		SourcePlatform:  "reddit",
		Title:           title,
		URL:             entry.Link,
		PublishedAt:     published,
		Category:        "Uncategorized",
		AuthorOrChannel: author,
		RawContent:      entry.Description,
	}
}
