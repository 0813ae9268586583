package collect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

const igActor = "apify~instagram-hashtag-scraper"
const commentsActor = "scrapesmith~instagram-free-comments-scraper"

func igConfig() (config.CollectConfig, config.ApifyConfig) {
	return config.CollectConfig{
			MaxPosts:           20,
			MaxComments:        20,
			CommentLookupPosts: 10,
		}, config.ApifyConfig{
			InstagramActor: igActor,
			CommentsActor:  commentsActor,
		}
}

// fakeBrowser implements BrowserScraper.
type fakeBrowser struct {
	candidates []model.Candidate
	hashtags   []string
}

func (f *fakeBrowser) ScrapeHashtag(_ context.Context, hashtag string, _ int) ([]model.Candidate, error) {
	f.hashtags = append(f.hashtags, hashtag)
	return f.candidates, nil
}

func TestInstagram_MapsItems(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[{
			"id": "p1",
			"url": "https://www.instagram.com/p/p1/",
			"caption": "Nowe hybrydy!",
			"ownerUsername": "super_salon",
			"externalUrl": "https://linktr.ee/super_salon",
			"likesCount": 120,
			"commentsCount": 2,
			"timestamp": "2026-08-01T10:00:00Z",
			"latestComments": [
				{"text": "Jaka cena?", "ownerUsername": "klientka", "likesCount": 1, "timestamp": "2026-08-01T11:00:00Z"}
			]
		}]`, nil
	}}
	cc, ac := igConfig()
	src := NewInstagram(api, nil, cc, ac)

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, model.PlatformInstagram, c.Platform)
	assert.Equal(t, "p1", c.SourceID)
	assert.Equal(t, "super_salon", c.OwnerUsername)
	assert.Equal(t, "https://linktr.ee/super_salon", c.BioLink)
	assert.Equal(t, 120, c.LikesCount)
	require.Len(t, c.Comments, 1)
	assert.Equal(t, "Jaka cena?", c.Comments[0].Text)
	assert.NotEmpty(t, c.Raw)
}

func TestInstagram_QueriesBothHashtags(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[{"id": "x", "url": "https://www.instagram.com/p/x/", "commentsCount": 0}]`, nil
	}}
	cc, ac := igConfig()
	src := NewInstagram(api, nil, cc, ac)

	_, err := src.Collect(context.Background(), Query{Niche: "paznokcie", Location: "warszawa"})

	require.NoError(t, err)
	assert.Equal(t, []string{"paznokcie", "paznokciewarszawa"}, api.hashtagQueries(igActor))
}

func TestInstagram_NeverQueriesDuplicateHashtag(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[{"id": "x", "url": "https://www.instagram.com/p/x/"}]`, nil
	}}
	cc, ac := igConfig()
	src := NewInstagram(api, nil, cc, ac)

	// niche already ends with the location, so both hashtags normalize to one
	_, err := src.Collect(context.Background(), Query{Niche: "paznokcie warszawa"})

	require.NoError(t, err)
	assert.Equal(t, []string{"paznokciewarszawa"}, api.hashtagQueries(igActor))
}

func TestInstagram_CommentTopUpCapped(t *testing.T) {
	posts := ""
	for i := range 15 {
		if i > 0 {
			posts += ","
		}
		posts += fmt.Sprintf(`{"id": "p%d", "url": "https://www.instagram.com/p/p%d/", "commentsCount": 5}`, i, i)
	}
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		if actorID == commentsActor {
			return `[{"text": "Czy macie wolny termin?", "ownerUsername": "k"}]`, nil
		}
		return "[" + posts + "]", nil
	}}
	cc, ac := igConfig()
	src := NewInstagram(api, nil, cc, ac)

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie"})

	require.NoError(t, err)
	require.Len(t, got, 15)

	lookups := 0
	for _, c := range api.calls {
		if c.actorID == commentsActor {
			lookups++
		}
	}
	assert.Equal(t, 10, lookups, "comment lookups capped to first 10 posts")
	assert.NotEmpty(t, got[0].Comments)
	assert.Empty(t, got[14].Comments)
}

func TestInstagram_NoTopUpWhenCommentsInline(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[{
			"id": "p1", "url": "https://www.instagram.com/p/p1/", "commentsCount": 3,
			"latestComments": [{"text": "Pięknie wygląda, ile kosztuje?"}]
		}]`, nil
	}}
	cc, ac := igConfig()
	src := NewInstagram(api, nil, cc, ac)

	_, err := src.Collect(context.Background(), Query{Niche: "paznokcie"})

	require.NoError(t, err)
	for _, c := range api.calls {
		assert.NotEqual(t, commentsActor, c.actorID)
	}
}

func TestInstagram_BrowserFallbackOnEmptyPrimary(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[]`, nil
	}}
	browser := &fakeBrowser{candidates: []model.Candidate{{
		Platform: model.PlatformInstagram,
		SourceID: "browser1",
	}}}
	cc, ac := igConfig()
	src := NewInstagram(api, browser, cc, ac)

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie", Location: "warszawa"})

	require.NoError(t, err)
	assert.Equal(t, []string{"paznokcie", "paznokciewarszawa"}, browser.hashtags)
	require.Len(t, got, 2)
	assert.Equal(t, "browser1", got[0].SourceID)
}

func TestInstagram_NoFallbackWhenPrimaryYields(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[{"id": "p1", "url": "https://www.instagram.com/p/p1/"}]`, nil
	}}
	browser := &fakeBrowser{}
	cc, ac := igConfig()
	src := NewInstagram(api, browser, cc, ac)

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, browser.hashtags)
}

func TestInstagram_HashtagErrorDoesNotAbortNext(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		tags := input["hashtags"].([]any)
		if tags[0] == "paznokcie" {
			return "", errors.New("actor timed out")
		}
		return `[{"id": "p2", "url": "https://www.instagram.com/p/p2/"}]`, nil
	}}
	cc, ac := igConfig()
	src := NewInstagram(api, nil, cc, ac)

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie", Location: "warszawa"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].SourceID)
}

func TestMapBrowserPosts(t *testing.T) {
	posts := []browserPost{
		{Href: "/p/abc123/", Alt: "Stylizacja hybrydowa"},
		{Href: "/p/abc123/", Alt: "duplicate"},
		{Href: "/reel/zzz/", Alt: "not a post"},
		{Href: "/p/def456/"},
	}

	got := mapBrowserPosts(posts, "paznokcie", 10)

	require.Len(t, got, 2)
	assert.Equal(t, "abc123", got[0].SourceID)
	assert.Equal(t, "https://www.instagram.com/p/abc123/", got[0].URL)
	assert.Equal(t, "Stylizacja hybrydowa", got[0].Caption)
	assert.Equal(t, "Post from #paznokcie", got[1].Caption)
	assert.Equal(t, "hidden", got[1].OwnerUsername)
}

func TestMapBrowserPosts_RespectsMax(t *testing.T) {
	var posts []browserPost
	for i := range 20 {
		posts = append(posts, browserPost{Href: fmt.Sprintf("/p/id%d/", i)})
	}
	got := mapBrowserPosts(posts, "tag", 5)
	assert.Len(t, got, 5)
}
