// Package media converts videos from allowlisted platforms to audio via
// an external downloader (yt-dlp compatible).
package media

import (
	"bytes"
	"context"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
)

// ErrHostNotAllowed reports a URL outside the video-platform allowlist.
var ErrHostNotAllowed = eris.New("media: host not allowed")

// DefaultAllowedHosts lists the video platforms conversions accept.
var DefaultAllowedHosts = []string{
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com",
	"vimeo.com",
}

// Converter shells out to the configured downloader binary.
type Converter struct {
	binary       string
	outputDir    string
	allowedHosts []string
}

// NewConverter creates a Converter from config, filling defaults.
func NewConverter(cfg config.MediaConfig) *Converter {
	binary := cfg.DownloaderPath
	if binary == "" {
		binary = "yt-dlp"
	}
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = "downloads"
	}
	hosts := cfg.AllowedHosts
	if len(hosts) == 0 {
		hosts = DefaultAllowedHosts
	}
	return &Converter{binary: binary, outputDir: outputDir, allowedHosts: hosts}
}

// CheckURL validates that rawURL is an http(s) URL on an allowed host.
func (c *Converter) CheckURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(err, "media: parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Errorf("media: unsupported scheme %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	for _, allowed := range c.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return eris.Wrapf(ErrHostNotAllowed, "media: %s", host)
}

// Convert downloads the video and extracts audio, returning the path of
// the produced file.
func (c *Converter) Convert(ctx context.Context, rawURL string) (string, error) {
	if err := c.CheckURL(rawURL); err != nil {
		return "", err
	}

	outTemplate := filepath.Join(c.outputDir, "%(id)s.%(ext)s")
	cmd := exec.CommandContext(ctx, c.binary,
		"-x", "--audio-format", "mp3",
		"-o", outTemplate,
		"--print", "after_move:filepath",
		"--no-progress",
		rawURL,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	zap.L().Info("media: converting", zap.String("url", rawURL))
	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "media: %s failed: %s", c.binary, strings.TrimSpace(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", eris.New("media: downloader produced no output path")
	}
	return path, nil
}
