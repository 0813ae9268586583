// Package apify wraps the Apify actor-run API used by the social collectors.
package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/flowassist/flow-cli/internal/retry"
)

const defaultBaseURL = "https://api.apify.com/v2"

// Client runs Apify actors synchronously and returns their dataset items.
type Client interface {
	// RunActorSync starts an actor run, waits for it to finish, and decodes
	// the default dataset items into out (a pointer to a slice).
	RunActorSync(ctx context.Context, actorID string, input any, out any) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(base string) Option {
	return func(c *httpClient) {
		c.baseURL = base
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate limit.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithTimeout overrides the per-run HTTP timeout. Actor runs can take
// minutes, so the default is generous.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates an Apify API client.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// RunActorSync calls POST /acts/{actorID}/run-sync-get-dataset-items, which
// blocks until the run finishes and returns the dataset as a JSON array.
func (c *httpClient) RunActorSync(ctx context.Context, actorID string, input any, out any) error {
	if c.token == "" {
		return eris.New("apify: missing API token")
	}

	body, err := json.Marshal(input)
	if err != nil {
		return eris.Wrap(err, "apify: marshal actor input")
	}

	// Actor endpoints throttle under load; retry the whole run on 429/5xx.
	return retry.Do(ctx, retry.DefaultPolicy(), "apify run "+actorID, func(ctx context.Context) error {
		return c.runOnce(ctx, actorID, body, out)
	})
}

func (c *httpClient) runOnce(ctx context.Context, actorID string, body []byte, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "apify: rate limit")
	}

	endpoint := c.baseURL + "/acts/" + url.PathEscape(actorID) + "/run-sync-get-dataset-items?token=" + url.QueryEscape(c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "apify: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "apify: run actor %s", actorID)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return eris.Wrap(err, "apify: read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Wrapf(&retry.StatusError{
			Status: resp.StatusCode,
			Detail: truncate(respBody, 512),
		}, "apify: actor %s", actorID)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrapf(err, "apify: decode dataset items for %s", actorID)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
