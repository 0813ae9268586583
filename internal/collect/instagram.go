package collect

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/pkg/apify"
)

// BrowserScraper is the local-browser fallback used when the hashtag API
// returns nothing.
type BrowserScraper interface {
	ScrapeHashtag(ctx context.Context, hashtag string, maxPosts int) ([]model.Candidate, error)
}

// InstagramSource collects hashtag posts via the Apify scraper, topping up
// comments with a secondary lookup, with a browser-driven fallback.
type InstagramSource struct {
	api     apify.Client
	browser BrowserScraper // nil disables the fallback
	cfg     config.CollectConfig
	actors  config.ApifyConfig
}

// NewInstagram creates the Instagram source.
func NewInstagram(api apify.Client, browser BrowserScraper, cfg config.CollectConfig, actors config.ApifyConfig) *InstagramSource {
	return &InstagramSource{api: api, browser: browser, cfg: cfg, actors: actors}
}

func (s *InstagramSource) Platform() model.Platform { return model.PlatformInstagram }

// igItem is the shape of one Apify instagram-hashtag-scraper dataset item.
type igItem struct {
	ID             string      `json:"id"`
	URL            string      `json:"url"`
	Caption        string      `json:"caption"`
	OwnerUsername  string      `json:"ownerUsername"`
	ExternalURL    string      `json:"externalUrl"`
	LikesCount     int         `json:"likesCount"`
	CommentsCount  int         `json:"commentsCount"`
	Timestamp      string      `json:"timestamp"`
	LatestComments []igComment `json:"latestComments"`
}

type igComment struct {
	Text          string `json:"text"`
	OwnerUsername string `json:"ownerUsername"`
	LikesCount    int    `json:"likesCount"`
	Timestamp     string `json:"timestamp"`
}

// Collect queries each deduplicated hashtag. Per-hashtag failures are
// logged and skipped. When the whole primary pass yields zero candidates
// and a browser scraper is configured, the same hashtags are retried
// through the local browser.
func (s *InstagramSource) Collect(ctx context.Context, q Query) ([]model.Candidate, error) {
	hashtags := Hashtags(q.Niche, q.Location)
	maxPosts := q.MaxPosts
	if maxPosts <= 0 {
		maxPosts = s.cfg.MaxPosts
	}

	var candidates []model.Candidate
	for _, tag := range hashtags {
		zap.L().Info("instagram: scraping hashtag", zap.String("hashtag", tag))

		input := map[string]any{
			"hashtags":     []string{tag},
			"resultsLimit": maxPosts,
		}
		var raw []json.RawMessage
		if err := s.api.RunActorSync(ctx, s.actors.InstagramActor, input, &raw); err != nil {
			zap.L().Error("instagram: hashtag scrape failed",
				zap.String("hashtag", tag),
				zap.Error(err),
			)
			continue
		}
		if len(raw) == 0 {
			zap.L().Warn("instagram: no items for hashtag", zap.String("hashtag", tag))
		}

		for _, payload := range raw {
			var item igItem
			if err := json.Unmarshal(payload, &item); err != nil {
				zap.L().Warn("instagram: skipping malformed item", zap.Error(err))
				continue
			}

			cand := model.Candidate{
				Platform:      model.PlatformInstagram,
				SourceID:      item.ID,
				URL:           item.URL,
				Caption:       item.Caption,
				OwnerUsername: item.OwnerUsername,
				BioLink:       item.ExternalURL,
				LikesCount:    item.LikesCount,
				CommentsCount: item.CommentsCount,
				Timestamp:     parseTimestamp(item.Timestamp),
				Comments:      mapIGComments(item.LatestComments),
				Raw:           payload,
			}

			// Comments missing inline: fetch them, but only for the first
			// few posts to bound external-call volume.
			if len(cand.Comments) == 0 && cand.CommentsCount > 0 && len(candidates) < s.cfg.CommentLookupPosts {
				comments, err := s.fetchComments(ctx, cand.URL)
				if err != nil {
					zap.L().Warn("instagram: failed to fetch comments",
						zap.String("url", cand.URL),
						zap.Error(err),
					)
				} else {
					cand.Comments = comments
				}
			}

			candidates = append(candidates, cand)
		}
	}

	if len(candidates) == 0 && s.browser != nil {
		zap.L().Warn("instagram: primary search empty, falling back to local browser")
		return s.collectViaBrowser(ctx, hashtags, maxPosts)
	}
	return candidates, nil
}

// fetchComments issues the secondary comments-scraper lookup for one post.
func (s *InstagramSource) fetchComments(ctx context.Context, postURL string) ([]model.Comment, error) {
	input := map[string]any{
		"directUrls":   []string{postURL},
		"resultsLimit": s.cfg.MaxComments,
	}
	var items []igComment
	if err := s.api.RunActorSync(ctx, s.actors.CommentsActor, input, &items); err != nil {
		return nil, err
	}
	return mapIGComments(items), nil
}

func (s *InstagramSource) collectViaBrowser(ctx context.Context, hashtags []string, maxPosts int) ([]model.Candidate, error) {
	var candidates []model.Candidate
	for _, tag := range hashtags {
		found, err := s.browser.ScrapeHashtag(ctx, tag, maxPosts)
		if err != nil {
			zap.L().Error("instagram: browser scrape failed",
				zap.String("hashtag", tag),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, found...)
	}
	return candidates, nil
}

func mapIGComments(items []igComment) []model.Comment {
	if len(items) == 0 {
		return nil
	}
	out := make([]model.Comment, 0, len(items))
	for _, c := range items {
		out = append(out, model.Comment{
			Text:      c.Text,
			Owner:     c.OwnerUsername,
			Likes:     c.LikesCount,
			Timestamp: parseTimestamp(c.Timestamp),
		})
	}
	return out
}
