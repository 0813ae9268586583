// Package collect retrieves raw social posts for a niche across the
// configured platforms.
package collect

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/flowassist/flow-cli/internal/model"
)

// Query describes one collection request.
type Query struct {
	Niche    string
	Location string
	MaxPosts int
}

// Source retrieves candidates from a single platform.
type Source interface {
	Platform() model.Platform
	Collect(ctx context.Context, q Query) ([]model.Candidate, error)
}

// Collector fans a query out to the enabled platform sources. A failing
// source is logged and skipped; it never aborts the run.
type Collector struct {
	sources []Source
}

// New creates a Collector over the given sources.
func New(sources ...Source) *Collector {
	return &Collector{sources: sources}
}

// Collect runs the query against every source whose platform is enabled
// and returns the flattened candidate list.
func (c *Collector) Collect(ctx context.Context, q Query, enabled []model.Platform) []model.Candidate {
	want := make(map[model.Platform]bool, len(enabled))
	for _, p := range enabled {
		want[p] = true
	}

	var all []model.Candidate
	for _, src := range c.sources {
		if !want[src.Platform()] {
			continue
		}
		candidates, err := src.Collect(ctx, q)
		if err != nil {
			zap.L().Error("collect: source failed",
				zap.String("platform", string(src.Platform())),
				zap.String("niche", q.Niche),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("collect: source done",
			zap.String("platform", string(src.Platform())),
			zap.Int("candidates", len(candidates)),
		)
		all = append(all, candidates...)
	}
	return all
}

// Hashtags builds the deduplicated hashtag list for a niche and optional
// location: the niche itself plus niche+location with spaces stripped,
// case-folded so "Paznokcie Warszawa" and "paznokcie warszawa" collapse.
func Hashtags(niche, location string) []string {
	folder := cases.Fold()

	normalize := func(s string) string {
		return folder.String(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	}

	var tags []string
	seen := make(map[string]bool)
	add := func(tag string) {
		if tag == "" || seen[tag] {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}

	add(normalize(niche))
	if strings.TrimSpace(location) != "" {
		add(normalize(niche + location))
	}
	return tags
}

// parseTimestamp tolerates the formats the scrapers emit. Zero time on
// failure; collection never aborts on a bad date.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
