package collect

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/pkg/apify"
)

// TikTokSource collects hashtag videos via the Apify TikTok scraper.
type TikTokSource struct {
	api    apify.Client
	cfg    config.CollectConfig
	actors config.ApifyConfig
}

// NewTikTok creates the TikTok source.
func NewTikTok(api apify.Client, cfg config.CollectConfig, actors config.ApifyConfig) *TikTokSource {
	return &TikTokSource{api: api, cfg: cfg, actors: actors}
}

func (s *TikTokSource) Platform() model.Platform { return model.PlatformTikTok }

// ttItem is the shape of one Apify tiktok-scraper dataset item.
type ttItem struct {
	ID           string `json:"id"`
	WebVideoURL  string `json:"webVideoUrl"`
	Text         string `json:"text"`
	AuthorMeta   struct {
		Name string `json:"name"`
	} `json:"authorMeta"`
	DiggCount    int   `json:"diggCount"`
	CommentCount int   `json:"commentCount"`
	CreateTime   int64 `json:"createTime"`
}

// Collect queries each deduplicated hashtag, mapping video engagement
// fields into the candidate shape (diggCount -> likes).
func (s *TikTokSource) Collect(ctx context.Context, q Query) ([]model.Candidate, error) {
	maxVideos := q.MaxPosts
	if maxVideos <= 0 {
		maxVideos = s.cfg.MaxPosts
	}

	var candidates []model.Candidate
	for _, tag := range Hashtags(q.Niche, q.Location) {
		zap.L().Info("tiktok: scraping hashtag", zap.String("hashtag", tag))

		input := map[string]any{
			"hashtags":                      []string{tag},
			"resultsPerPage":                maxVideos,
			"shouldDownloadVideos":          false,
			"shouldDownloadCovers":          false,
			"shouldDownloadSlideshowImages": false,
		}
		var raw []json.RawMessage
		if err := s.api.RunActorSync(ctx, s.actors.TikTokActor, input, &raw); err != nil {
			zap.L().Error("tiktok: hashtag scrape failed",
				zap.String("hashtag", tag),
				zap.Error(err),
			)
			continue
		}

		for _, payload := range raw {
			var item ttItem
			if err := json.Unmarshal(payload, &item); err != nil {
				zap.L().Warn("tiktok: skipping malformed item", zap.Error(err))
				continue
			}

			var ts time.Time
			if item.CreateTime > 0 {
				ts = time.Unix(item.CreateTime, 0).UTC()
			}

			candidates = append(candidates, model.Candidate{
				Platform:      model.PlatformTikTok,
				SourceID:      item.ID,
				URL:           item.WebVideoURL,
				Caption:       item.Text,
				OwnerUsername: item.AuthorMeta.Name,
				LikesCount:    item.DiggCount,
				CommentsCount: item.CommentCount,
				Timestamp:     ts,
				Raw:           payload,
			})
		}
	}
	return candidates, nil
}
