package collect

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/flowassist/flow-cli/internal/config"
	"github.com/flowassist/flow-cli/internal/model"
)

// cookieButtonXPaths match the consent dialogs Instagram and Facebook show
// in the Polish and English locales.
var cookieButtonXPaths = []string{
	`//button[contains(., 'Zezwól na wszystkie pliki cookie')]`,
	`//button[contains(., 'Allow all cookies')]`,
	`//button[contains(., 'Zezwól')]`,
	`//button[contains(., 'Allow')]`,
	`//button[@data-testid='cookie-policy-manage-dialog-accept-button']`,
}

// extractPostsJS pulls every grid post link with its alt-text caption from
// the rendered page.
const extractPostsJS = `
Array.from(document.querySelectorAll("a[href*='/p/']")).map(a => {
	const img = a.querySelector("img");
	return { href: a.getAttribute("href") || "", alt: img ? (img.getAttribute("alt") || "") : "" };
})`

type browserPost struct {
	Href string `json:"href"`
	Alt  string `json:"alt"`
}

// ChromeScraper drives a local Chrome instance over the Instagram hashtag
// explore pages. It handles cookie-consent dialogs and login walls,
// including an assisted-login wait when a human is at the keyboard.
type ChromeScraper struct {
	headless  bool
	loginWait time.Duration
}

// NewChromeScraper creates the browser fallback scraper.
func NewChromeScraper(cfg config.CollectConfig) *ChromeScraper {
	wait := time.Duration(cfg.LoginWaitSecs) * time.Second
	if wait <= 0 {
		wait = 120 * time.Second
	}
	return &ChromeScraper{
		headless:  cfg.BrowserHeadless,
		loginWait: wait,
	}
}

// ScrapeHashtag renders the hashtag explore page and extracts post links
// and alt-text captions from the grid.
func (s *ChromeScraper) ScrapeHashtag(ctx context.Context, hashtag string, maxPosts int) ([]model.Candidate, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", s.headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	pageURL := fmt.Sprintf("https://www.instagram.com/explore/tags/%s/", hashtag)

	var currentURL string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
		chromedp.ActionFunc(s.dismissCookies),
		chromedp.Location(&currentURL),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: navigate to #%s", hashtag)
	}

	if loginWalled(currentURL) {
		if err := s.waitForLogin(browserCtx, pageURL); err != nil {
			return nil, err
		}
	}

	// Scroll to force the grid to load.
	var posts []browserPost
	err = chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			for range 3 {
				if err := chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil).Do(ctx); err != nil {
					return err
				}
				if err := chromedp.Sleep(2 * time.Second).Do(ctx); err != nil {
					return err
				}
			}
			return nil
		}),
		chromedp.Evaluate(extractPostsJS, &posts),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: extract posts for #%s", hashtag)
	}

	zap.L().Info("browser: grid scan complete",
		zap.String("hashtag", hashtag),
		zap.Int("links", len(posts)),
	)

	return mapBrowserPosts(posts, hashtag, maxPosts), nil
}

// dismissCookies clicks through any consent dialog. Absence of a dialog is
// not an error.
func (s *ChromeScraper) dismissCookies(ctx context.Context) error {
	for _, xpath := range cookieButtonXPaths {
		clickCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible).Do(clickCtx)
		cancel()
		if err == nil {
			zap.L().Debug("browser: dismissed cookie dialog", zap.String("selector", xpath))
			_ = chromedp.Sleep(2 * time.Second).Do(ctx)
			return nil
		}
	}
	return nil
}

// waitForLogin polls for a completed login for up to the configured wait,
// then re-navigates to the target page. With a visible browser this lets a
// human finish the login manually.
func (s *ChromeScraper) waitForLogin(ctx context.Context, pageURL string) error {
	zap.L().Warn("browser: login wall detected, waiting for manual login",
		zap.Duration("max_wait", s.loginWait),
	)

	deadline := time.Now().Add(s.loginWait)
	for time.Now().Before(deadline) {
		if err := chromedp.Run(ctx, chromedp.Sleep(5*time.Second)); err != nil {
			return eris.Wrap(err, "browser: login wait")
		}
		var url string
		if err := chromedp.Run(ctx, chromedp.Location(&url)); err != nil {
			return eris.Wrap(err, "browser: read location")
		}
		if strings.Contains(url, "instagram.com") && !loginWalled(url) {
			zap.L().Info("browser: login detected, resuming scrape")
			break
		}
	}

	return eris.Wrap(chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(3*time.Second),
	), "browser: re-navigate after login")
}

func loginWalled(url string) bool {
	return strings.Contains(url, "/accounts/login") || strings.Contains(url, "login") || strings.Contains(url, "facebook.com")
}

// mapBrowserPosts converts extracted grid links into candidates. Engagement
// counters are unknown from the grid view and stay zero.
func mapBrowserPosts(posts []browserPost, hashtag string, maxPosts int) []model.Candidate {
	var out []model.Candidate
	seen := make(map[string]bool)
	for _, p := range posts {
		if len(out) >= maxPosts {
			break
		}
		idx := strings.Index(p.Href, "/p/")
		if idx < 0 {
			continue
		}
		sourceID := strings.Trim(p.Href[idx+len("/p/"):], "/")
		if sourceID == "" || seen[sourceID] {
			continue
		}
		seen[sourceID] = true

		caption := p.Alt
		if caption == "" {
			caption = "Post from #" + hashtag
		}

		out = append(out, model.Candidate{
			Platform:      model.PlatformInstagram,
			SourceID:      sourceID,
			URL:           "https://www.instagram.com" + p.Href,
			Caption:       caption,
			OwnerUsername: "hidden",
			Timestamp:     time.Now().UTC(),
			Raw:           []byte(`{"scraped_via":"browser"}`),
		})
	}
	return out
}
