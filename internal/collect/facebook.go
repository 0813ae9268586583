package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/pkg/apify"
)

// FacebookSource collects public posts via keyword search.
type FacebookSource struct {
	api    apify.Client
	cfg    config.CollectConfig
	actors config.ApifyConfig
}

// NewFacebook creates the Facebook source.
func NewFacebook(api apify.Client, cfg config.CollectConfig, actors config.ApifyConfig) *FacebookSource {
	return &FacebookSource{api: api, cfg: cfg, actors: actors}
}

func (s *FacebookSource) Platform() model.Platform { return model.PlatformFacebook }

// fbItem is the shape of one Apify facebook-posts-scraper dataset item.
type fbItem struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Text string `json:"text"`
	User struct {
		Name string `json:"name"`
	} `json:"user"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Time     string `json:"time"`
}

// Collect searches public posts for the niche keyword, and for
// niche+location when a location is given. Keyword failures are logged and
// skipped.
func (s *FacebookSource) Collect(ctx context.Context, q Query) ([]model.Candidate, error) {
	maxPosts := q.MaxPosts
	if maxPosts <= 0 {
		maxPosts = s.cfg.MaxPosts
	}

	keywords := []string{strings.TrimSpace(q.Niche)}
	if loc := strings.TrimSpace(q.Location); loc != "" {
		keywords = append(keywords, keywords[0]+" "+loc)
	}

	var candidates []model.Candidate
	seen := make(map[string]bool)
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		zap.L().Info("facebook: searching posts", zap.String("keyword", kw))

		input := map[string]any{
			"startUrls": []map[string]string{
				{"url": fmt.Sprintf("https://www.facebook.com/search/posts?q=%s", url.QueryEscape(kw))},
			},
			"resultsLimit": maxPosts,
		}
		var raw []json.RawMessage
		if err := s.api.RunActorSync(ctx, s.actors.FacebookActor, input, &raw); err != nil {
			zap.L().Error("facebook: keyword search failed",
				zap.String("keyword", kw),
				zap.Error(err),
			)
			continue
		}

		for _, payload := range raw {
			var item fbItem
			if err := json.Unmarshal(payload, &item); err != nil {
				zap.L().Warn("facebook: skipping malformed item", zap.Error(err))
				continue
			}
			candidates = append(candidates, model.Candidate{
				Platform:      model.PlatformFacebook,
				SourceID:      item.ID,
				URL:           item.URL,
				Caption:       item.Text,
				OwnerUsername: item.User.Name,
				LikesCount:    item.Likes,
				CommentsCount: item.Comments,
				Timestamp:     parseTimestamp(item.Time),
				Raw:           payload,
			})
		}
	}
	return candidates, nil
}
