package model

import "time"

// NewsItem is a single aggregated news entry from the AI/tech side pipeline.
type NewsItem struct {
	ID              string    `json:"id"`
	SourcePlatform  string    `json:"source_platform"` // "reddit" or "youtube"
	Title           string    `json:"title"`
	URL             string    `json:"url"`
	PublishedAt     time.Time `json:"published_at"`
	Thumbnail       string    `json:"thumbnail,omitempty"`
	SummaryPoints   []string  `json:"summary_points"`
	Category        string    `json:"category"`
	AuthorOrChannel string    `json:"author_or_channel"`
	RawContent      string    `json:"raw_content,omitempty"`
}

// NewsSource is an active feed configured in the source registry.
type NewsSource struct {
	Platform   string `json:"platform"` // "reddit" or "youtube"
	Identifier string `json:"identifier"`
	Active     bool   `json:"active"`
}
