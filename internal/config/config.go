// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Apify    ApifyConfig    `yaml:"apify" mapstructure:"apify"`
	Gemini   GeminiConfig   `yaml:"gemini" mapstructure:"gemini"`
	Claude   ClaudeConfig   `yaml:"claude" mapstructure:"claude"`
	YouTube  YouTubeConfig  `yaml:"youtube" mapstructure:"youtube"`
	Notion   NotionConfig   `yaml:"notion" mapstructure:"notion"`
	Collect  CollectConfig  `yaml:"collect" mapstructure:"collect"`
	Analyze  AnalyzeConfig  `yaml:"analyze" mapstructure:"analyze"`
	Enrich   EnrichConfig   `yaml:"enrich" mapstructure:"enrich"`
	Score    ScoreConfig    `yaml:"score" mapstructure:"score"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	News     NewsConfig     `yaml:"news" mapstructure:"news"`
	Media    MediaConfig    `yaml:"media" mapstructure:"media"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ApifyConfig holds Apify API settings for the social scrapers.
type ApifyConfig struct {
	Key            string  `yaml:"key" mapstructure:"key"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	InstagramActor string  `yaml:"instagram_actor" mapstructure:"instagram_actor"`
	CommentsActor  string  `yaml:"comments_actor" mapstructure:"comments_actor"`
	TikTokActor    string  `yaml:"tiktok_actor" mapstructure:"tiktok_actor"`
	FacebookActor  string  `yaml:"facebook_actor" mapstructure:"facebook_actor"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// GeminiConfig holds Google Gemini settings (primary text-gen backend).
// Models are tried in order until one initializes.
type GeminiConfig struct {
	Key    string   `yaml:"key" mapstructure:"key"`
	Models []string `yaml:"models" mapstructure:"models"`
}

// ClaudeConfig holds Anthropic settings (secondary text-gen backend).
type ClaudeConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// YouTubeConfig holds YouTube Data API settings.
type YouTubeConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// NotionConfig holds Notion API credentials for lead export.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// CollectConfig configures the collector stage.
type CollectConfig struct {
	MaxPosts           int  `yaml:"max_posts" mapstructure:"max_posts"`
	MaxComments        int  `yaml:"max_comments" mapstructure:"max_comments"`
	CommentLookupPosts int  `yaml:"comment_lookup_posts" mapstructure:"comment_lookup_posts"`
	BrowserFallback    bool `yaml:"browser_fallback" mapstructure:"browser_fallback"`
	BrowserHeadless    bool `yaml:"browser_headless" mapstructure:"browser_headless"`
	LoginWaitSecs      int  `yaml:"login_wait_secs" mapstructure:"login_wait_secs"`
}

// AnalyzeConfig configures the pain-signal analyzer.
type AnalyzeConfig struct {
	MinCommentLen int `yaml:"min_comment_len" mapstructure:"min_comment_len"`
	MaxCommentLen int `yaml:"max_comment_len" mapstructure:"max_comment_len"`
	MaxComments   int `yaml:"max_comments" mapstructure:"max_comments"`
}

// EnrichConfig configures the automation-gap enricher.
type EnrichConfig struct {
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs" mapstructure:"fetch_timeout_secs"`
}

// ScoreConfig holds the display-priority thresholds. They are independent
// of the pipeline save threshold.
type ScoreConfig struct {
	HotThreshold  float64 `yaml:"hot_threshold" mapstructure:"hot_threshold"`
	WarmThreshold float64 `yaml:"warm_threshold" mapstructure:"warm_threshold"`
}

// PipelineConfig configures the lead-gen orchestrator.
type PipelineConfig struct {
	SaveThreshold float64 `yaml:"save_threshold" mapstructure:"save_threshold"`
}

// NewsConfig configures the news aggregation side pipeline.
type NewsConfig struct {
	MaxVideos        int    `yaml:"max_videos" mapstructure:"max_videos"`
	SummarizeWorkers int    `yaml:"summarize_workers" mapstructure:"summarize_workers"`
	SourcesFile      string `yaml:"sources_file" mapstructure:"sources_file"`
}

// MediaConfig configures the media conversion endpoint.
type MediaConfig struct {
	DownloaderPath string   `yaml:"downloader_path" mapstructure:"downloader_path"`
	OutputDir      string   `yaml:"output_dir" mapstructure:"output_dir"`
	AllowedHosts   []string `yaml:"allowed_hosts" mapstructure:"allowed_hosts"`
}

// ServerConfig configures the trigger API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "flowassist.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("apify.base_url", "https://api.apify.com/v2")
	v.SetDefault("apify.instagram_actor", "apify~instagram-hashtag-scraper")
	v.SetDefault("apify.comments_actor", "scrapesmith~instagram-free-comments-scraper")
	v.SetDefault("apify.tiktok_actor", "clockworks~tiktok-scraper")
	v.SetDefault("apify.facebook_actor", "apify~facebook-posts-scraper")
	v.SetDefault("apify.timeout_secs", 300)
	v.SetDefault("apify.requests_per_sec", 2)
	v.SetDefault("gemini.models", []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-flash-latest"})
	v.SetDefault("claude.model", "claude-haiku-4-5-20251001")
	v.SetDefault("collect.max_posts", 20)
	v.SetDefault("collect.max_comments", 20)
	v.SetDefault("collect.comment_lookup_posts", 10)
	v.SetDefault("collect.browser_fallback", true)
	v.SetDefault("collect.browser_headless", true)
	v.SetDefault("collect.login_wait_secs", 120)
	v.SetDefault("analyze.min_comment_len", 6)
	v.SetDefault("analyze.max_comment_len", 500)
	v.SetDefault("analyze.max_comments", 50)
	v.SetDefault("enrich.fetch_timeout_secs", 5)
	v.SetDefault("score.hot_threshold", 75)
	v.SetDefault("score.warm_threshold", 50)
	v.SetDefault("pipeline.save_threshold", 10)
	v.SetDefault("news.max_videos", 10)
	v.SetDefault("news.summarize_workers", 5)
	v.SetDefault("news.sources_file", "")
	v.SetDefault("media.downloader_path", "yt-dlp")
	v.SetDefault("media.output_dir", "downloads")
	v.SetDefault("media.allowed_hosts", []string{
		"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be",
		"vimeo.com", "www.vimeo.com", "tiktok.com", "www.tiktok.com",
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
