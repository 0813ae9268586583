package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flowassist/flow-cli/internal/model"
	"github.com/flowassist/flow-cli/internal/registry"
)

// Fetcher retrieves news items for a list of source identifiers.
type Fetcher interface {
	Fetch(ctx context.Context, identifiers []string) []model.NewsItem
}

// NewsSaver persists finished news items.
type NewsSaver interface {
	InsertNewsItems(ctx context.Context, items []model.NewsItem) (int, error)
}

// Report summarizes one aggregation run.
type Report struct {
	RedditItems  int  `json:"reddit_items"`
	YouTubeItems int  `json:"youtube_items"`
	Processed    int  `json:"processed"`
	Saved        int  `json:"saved"`
	SaveFailed   bool `json:"save_failed,omitempty"`
}

// Runner orchestrates one news aggregation pass: fetch both platforms in
// parallel, summarize with a bounded worker pool, then save or print.
type Runner struct {
	reddit     Fetcher
	youtube    Fetcher // nil when no API key is configured
	summarizer *Summarizer
	registry   *registry.Registry
	saver      NewsSaver
	workers    int
	out        io.Writer
}

// NewRunner creates a Runner. youtube may be nil.
func NewRunner(reddit, youtube Fetcher, summarizer *Summarizer, reg *registry.Registry, saver NewsSaver, workers int) *Runner {
	if workers <= 0 {
		workers = 5
	}
	return &Runner{
		reddit:     reddit,
		youtube:    youtube,
		summarizer: summarizer,
		registry:   reg,
		saver:      saver,
		workers:    workers,
		out:        os.Stdout,
	}
}

// WithOutput overrides where dry-run and fallback JSON is written.
func (r *Runner) WithOutput(w io.Writer) *Runner {
	r.out = w
	return r
}

// Run executes one aggregation pass. dryRun skips persistence and prints
// the processed items as JSON instead.
func (r *Runner) Run(ctx context.Context, dryRun bool) (*Report, error) {
	sources := r.registry.Load(ctx)
	report := &Report{}

	var redditItems, youtubeItems []model.NewsItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		redditItems = r.reddit.Fetch(gctx, sources.Subreddits)
		return nil
	})
	if r.youtube != nil {
		g.Go(func() error {
			youtubeItems = r.youtube.Fetch(gctx, sources.YouTubeChannels)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // fetchers degrade internally, never error

	report.RedditItems = len(redditItems)
	report.YouTubeItems = len(youtubeItems)
	zap.L().Info("news: fetch complete",
		zap.Int("reddit", report.RedditItems),
		zap.Int("youtube", report.YouTubeItems),
	)

	all := append(redditItems, youtubeItems...)
	if len(all) == 0 {
		zap.L().Info("news: no items found")
		return report, nil
	}

	processed := r.summarizeAll(ctx, all)
	report.Processed = len(processed)

	if dryRun {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(processed); err != nil {
			zap.L().Error("news: dry-run output failed", zap.Error(err))
		}
		return report, nil
	}

	saved, err := r.saver.InsertNewsItems(ctx, processed)
	if err != nil {
		zap.L().Error("news: persistence failed, dumping items", zap.Error(err))
		report.SaveFailed = true
		r.dumpItems(processed)
		return report, nil
	}
	report.Saved = saved
	zap.L().Info("news: run complete", zap.Int("saved", saved))
	return report, nil
}

// summarizeAll runs the summarizer over all items with a bounded pool.
// Order is preserved; individual items cannot fail.
func (r *Runner) summarizeAll(ctx context.Context, items []model.NewsItem) []model.NewsItem {
	processed := make([]model.NewsItem, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range items {
		g.Go(func() error {
			processed[i] = r.summarizer.Summarize(gctx, items[i])
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return processed
}

// dumpItems prints the first two items so a failed save never loses the run.
func (r *Runner) dumpItems(items []model.NewsItem) {
	const maxDump = 2
	dump := items
	if len(dump) > maxDump {
		dump = dump[:maxDump]
	}
	fmt.Fprintf(r.out, "Fallback JSON output (%d of %d items):\n", len(dump), len(items))
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dump); err != nil {
		zap.L().Error("news: fallback dump failed", zap.Error(err))
	}
}
