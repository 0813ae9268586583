// Package registry resolves the active news sources for an aggregation
// run: database entries first, then an optional YAML file, then the
// built-in defaults.
package registry

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/flowassist/flow-cli/internal/model"
)

// Built-in defaults used when no sources are configured anywhere else.
var (
	// Subreddit spelling matches the live community name.
	DefaultSubreddits = []string{"ArtificialInteligence", "OpenAI", "MachineLearning"}

	DefaultYouTubeChannels = []string{
		"UCbfYPyITQ-7l4upoX8nvctg", // Two Minute Papers
		"UC7e1y3j0-a0t_qZl4-6j29A",
		"UCNJ1YreU-n91U-7p7r72t7A",
	}
)

const (
	PlatformReddit  = "reddit"
	PlatformYouTube = "youtube"
)

// SourceLister is the subset of the store the registry reads from.
type SourceLister interface {
	ListSources(ctx context.Context, platform string) ([]model.NewsSource, error)
	UpsertSources(ctx context.Context, sources []model.NewsSource) error
}

// Sources is the per-platform partition of active sources.
type Sources struct {
	Subreddits      []string
	YouTubeChannels []string
}

// Registry loads and partitions news sources.
type Registry struct {
	store       SourceLister
	sourcesFile string
}

// New creates a Registry. store may be nil; sourcesFile may be empty.
func New(store SourceLister, sourcesFile string) *Registry {
	return &Registry{store: store, sourcesFile: sourcesFile}
}

// Load resolves the active sources. Resolution order: store entries, then
// the YAML file, then built-in defaults. Failures fall through to the next
// layer rather than aborting the run.
func (r *Registry) Load(ctx context.Context) Sources {
	if r.store != nil {
		stored, err := r.store.ListSources(ctx, "")
		if err != nil {
			zap.L().Warn("registry: listing stored sources failed, falling back", zap.Error(err))
		} else if len(stored) > 0 {
			return partition(stored)
		}
	}

	if r.sourcesFile != "" {
		fileSources, err := loadSourcesFile(r.sourcesFile)
		if err != nil {
			zap.L().Warn("registry: reading sources file failed, falling back",
				zap.String("path", r.sourcesFile), zap.Error(err))
		} else if len(fileSources) > 0 {
			r.persist(ctx, fileSources)
			return partition(fileSources)
		}
	}

	return Sources{
		Subreddits:      append([]string(nil), DefaultSubreddits...),
		YouTubeChannels: append([]string(nil), DefaultYouTubeChannels...),
	}
}

// persist mirrors file-configured sources into the store so later runs can
// manage them there. Best effort only.
func (r *Registry) persist(ctx context.Context, sources []model.NewsSource) {
	if r.store == nil {
		return
	}
	if err := r.store.UpsertSources(ctx, sources); err != nil {
		zap.L().Warn("registry: persisting file sources failed", zap.Error(err))
	}
}

func partition(sources []model.NewsSource) Sources {
	var out Sources
	for _, src := range sources {
		if !src.Active {
			continue
		}
		switch src.Platform {
		case PlatformReddit:
			out.Subreddits = append(out.Subreddits, src.Identifier)
		case PlatformYouTube:
			out.YouTubeChannels = append(out.YouTubeChannels, src.Identifier)
		default:
			zap.L().Warn("registry: skipping source with unknown platform",
				zap.String("platform", src.Platform),
				zap.String("identifier", src.Identifier),
			)
		}
	}
	return out
}

// sourcesFileDoc is the on-disk YAML shape:
//
//	reddit:
//	  - MachineLearning
//	youtube:
//	  - UCbfYPyITQ-7l4upoX8nvctg
type sourcesFileDoc struct {
	Reddit  []string `yaml:"reddit"`
	YouTube []string `yaml:"youtube"`
}

func loadSourcesFile(path string) ([]model.NewsSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "registry: read %s", path)
	}
	var doc sourcesFileDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrapf(err, "registry: parse %s", path)
	}

	var sources []model.NewsSource
	for _, sub := range doc.Reddit {
		sources = append(sources, model.NewsSource{Platform: PlatformReddit, Identifier: sub, Active: true})
	}
	for _, ch := range doc.YouTube {
		sources = append(sources, model.NewsSource{Platform: PlatformYouTube, Identifier: ch, Active: true})
	}
	return sources, nil
}
