package collect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

func TestTikTok_MapsEngagementFields(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		assert.Equal(t, "clockworks~tiktok-scraper", actorID)
		assert.Equal(t, false, input["shouldDownloadVideos"])
		return `[{
			"id": "v1",
			"webVideoUrl": "https://www.tiktok.com/@salon/video/v1",
			"text": "Paznokcie na lato",
			"authorMeta": {"name": "salon"},
			"diggCount": 350,
			"commentCount": 40,
			"createTime": 1754820000
		}]`, nil
	}}
	src := NewTikTok(api, config.CollectConfig{MaxPosts: 20}, config.ApifyConfig{TikTokActor: "clockworks~tiktok-scraper"})

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie"})

	require.NoError(t, err)
	require.Len(t, got, 1)
	c := got[0]
	assert.Equal(t, model.PlatformTikTok, c.Platform)
	assert.Equal(t, 350, c.LikesCount, "diggCount maps to likes")
	assert.Equal(t, 40, c.CommentsCount)
	assert.Equal(t, "salon", c.OwnerUsername)
	assert.False(t, c.Timestamp.IsZero())
}

func TestFacebook_SearchesNicheAndLocation(t *testing.T) {
	api := &fakeApify{respond: func(actorID string, input map[string]any) (string, error) {
		return `[{
			"id": "fb1",
			"url": "https://www.facebook.com/posts/fb1",
			"text": "Szukam manikiurzystki",
			"user": {"name": "Anna"},
			"likes": 10,
			"comments": 4,
			"time": "2026-08-10T09:00:00Z"
		}]`, nil
	}}
	src := NewFacebook(api, config.CollectConfig{MaxPosts: 10}, config.ApifyConfig{FacebookActor: "apify~facebook-posts-scraper"})

	got, err := src.Collect(context.Background(), Query{Niche: "paznokcie", Location: "warszawa"})

	require.NoError(t, err)
	require.Len(t, got, 2) // one item per keyword search
	assert.Equal(t, model.PlatformFacebook, got[0].Platform)
	assert.Equal(t, "Anna", got[0].OwnerUsername)

	require.Len(t, api.calls, 2)
	first, _ := api.calls[0].input["startUrls"].([]any)
	require.Len(t, first, 1)
	startURL := first[0].(map[string]any)["url"].(string)
	assert.Contains(t, startURL, "q=paznokcie")
}
