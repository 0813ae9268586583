package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/flowassist/flow-cli/internal/model"
)

// YouTubeFetcher pulls the latest uploads from configured channels via the
// YouTube Data API.
type YouTubeFetcher struct {
	svc        *youtube.Service
	maxResults int64
}

// NewYouTubeFetcher builds the API client. Extra options are forwarded to
// the service constructor so tests can point it at a fake endpoint.
func NewYouTubeFetcher(ctx context.Context, apiKey string, maxResults int, opts ...option.ClientOption) (*YouTubeFetcher, error) {
	if apiKey == "" {
		return nil, eris.New("youtube: missing API key")
	}
	if maxResults <= 0 {
		maxResults = 10
	}
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, eris.Wrap(err, "youtube: create service")
	}
	return &YouTubeFetcher{svc: svc, maxResults: int64(maxResults)}, nil
}

// Fetch retrieves the latest uploads for each channel identifier. A channel
// that cannot be resolved or queried is logged and skipped.
func (f *YouTubeFetcher) Fetch(ctx context.Context, identifiers []string) []model.NewsItem {
	var items []model.NewsItem
	for _, ident := range identifiers {
		channelID, err := f.resolveChannelID(ctx, ident)
		if err != nil {
			zap.L().Warn("news: resolving youtube channel failed", zap.String("identifier", ident), zap.Error(err))
			continue
		}

		uploadsID, err := f.uploadsPlaylistID(ctx, channelID)
		if err != nil {
			zap.L().Warn("news: youtube uploads playlist lookup failed", zap.String("channel", channelID), zap.Error(err))
			continue
		}

		videos, err := f.latestUploads(ctx, uploadsID)
		if err != nil {
			zap.L().Warn("news: fetching youtube uploads failed", zap.String("channel", channelID), zap.Error(err))
			continue
		}
		items = append(items, videos...)
	}
	return items
}

// resolveChannelID accepts a raw channel ID, a channel URL, or an @handle.
func (f *YouTubeFetcher) resolveChannelID(ctx context.Context, identifier string) (string, error) {
	if strings.HasPrefix(identifier, "UC") && len(identifier) == 24 {
		return identifier, nil
	}

	if strings.Contains(identifier, "youtube.com") || strings.Contains(identifier, "youtu.be") {
		if _, after, ok := strings.Cut(identifier, "/channel/"); ok {
			id, _, _ := strings.Cut(after, "/")
			id, _, _ = strings.Cut(id, "?")
			return id, nil
		}
		if _, after, ok := strings.Cut(identifier, "/@"); ok {
			handle, _, _ := strings.Cut(after, "/")
			handle, _, _ = strings.Cut(handle, "?")
			identifier = "@" + handle
		}
	}

	if strings.HasPrefix(identifier, "@") {
		resp, err := f.svc.Channels.List([]string{"id"}).ForHandle(identifier).Context(ctx).Do()
		if err != nil {
			return "", eris.Wrapf(err, "youtube: resolve handle %s", identifier)
		}
		if len(resp.Items) == 0 {
			return "", eris.Errorf("youtube: handle %s not found", identifier)
		}
		return resp.Items[0].Id, nil
	}

	// Legacy usernames pass through untouched.
	return identifier, nil
}

func (f *YouTubeFetcher) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	resp, err := f.svc.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return "", eris.Wrapf(err, "youtube: channel %s", channelID)
	}
	if len(resp.Items) == 0 {
		return "", eris.Errorf("youtube: channel %s not found", channelID)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (f *YouTubeFetcher) latestUploads(ctx context.Context, playlistID string) ([]model.NewsItem, error) {
	resp, err := f.svc.PlaylistItems.List([]string{"snippet", "contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(f.maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, eris.Wrapf(err, "youtube: playlist %s", playlistID)
	}

	var items []model.NewsItem
	for _, pi := range resp.Items {
		if pi.Snippet == nil || pi.ContentDetails == nil {
			continue
		}
		items = append(items, mapUpload(pi))
	}
	return items, nil
}

func mapUpload(pi *youtube.PlaylistItem) model.NewsItem {
	published := time.Now().UTC()
	if ts, err := time.Parse(time.RFC3339, pi.Snippet.PublishedAt); err == nil {
		published = ts.UTC()
	}

	thumbnail := ""
	if pi.Snippet.Thumbnails != nil && pi.Snippet.Thumbnails.High != nil {
		thumbnail = pi.Snippet.Thumbnails.High.Url
	}

	return model.NewsItem{
		ID:              uuid.New().String(),
		SourcePlatform:  "youtube",
		Title:           pi.Snippet.Title,
		URL:             fmt.Sprintf("https://www.youtube.com/watch?v=%s", pi.ContentDetails.VideoId),
		PublishedAt:     published,
		Thumbnail:       thumbnail,
		Category:        "Uncategorized",
		AuthorOrChannel: pi.Snippet.ChannelTitle,
		RawContent:      pi.Snippet.Description,
	}
}
