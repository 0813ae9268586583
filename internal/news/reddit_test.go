package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redditFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>r/OpenAI</title>
  <entry>
    <author><name>u/researcher</name></author>
    <title>New model drops today</title>
    <link href="https://www.reddit.com/r/OpenAI/comments/abc/new_model/"/>
    <updated>2026-08-01T10:00:00+00:00</updated>
    <content type="html">Model details inside.</content>
  </entry>
  <entry>
    <title>Weekly discussion</title>
    <link href="https://www.reddit.com/r/OpenAI/comments/def/weekly/"/>
    <updated>2026-08-02T09:30:00+00:00</updated>
  </entry>
</feed>`

func TestReddit_FetchMapsEntries(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/OpenAI/.rss", r.URL.Path)
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(redditFeedXML)) //nolint:errcheck
	}))
	defer ts.Close()

	f := NewRedditFetcher()
	f.baseURL = ts.URL + "/r/%s/.rss"

	items := f.Fetch(context.Background(), []string{"OpenAI"})
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "reddit", first.SourcePlatform)
	assert.Equal(t, "New model drops today", first.Title)
	assert.Equal(t, "https://www.reddit.com/r/OpenAI/comments/abc/new_model/", first.URL)
	assert.Equal(t, "u/researcher", first.AuthorOrChannel)
	assert.Equal(t, "Uncategorized", first.Category)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 2026, first.PublishedAt.Year())

	// Entries without an author attribute fall back to the subreddit name.
	assert.Equal(t, "r/OpenAI", items[1].AuthorOrChannel)
}

func TestReddit_FailingFeedIsSkipped(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/r/broken/.rss" {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(redditFeedXML)) //nolint:errcheck
	}))
	defer ts.Close()

	f := NewRedditFetcher()
	f.baseURL = ts.URL + "/r/%s/.rss"

	items := f.Fetch(context.Background(), []string{"broken", "OpenAI"})
	assert.Len(t, items, 2, "working subreddit still contributes")
}
