// Package textgen provides the ordered chain of text-classification backends
// used for pain-signal analysis and news summarization.
package textgen

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Backend turns a natural-language prompt into a JSON document. Responses
// may arrive wrapped in markdown code fences; callers parse via ExtractJSON.
type Backend interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

// Chain tries backends in priority order, returning the first response that
// contains parseable JSON. A deterministic fallback backend placed last
// makes the chain infallible.
type Chain struct {
	backends []Backend
}

// NewChain creates a Chain. Backends are tried in the given order.
func NewChain(backends ...Backend) *Chain {
	return &Chain{backends: backends}
}

// Generate runs the chain and unmarshals the first parseable JSON response
// into out. Returns the name of the backend that served the request.
func (c *Chain) Generate(ctx context.Context, prompt string, out any) (string, error) {
	var lastErr error
	for _, b := range c.backends {
		raw, err := b.GenerateJSON(ctx, prompt)
		if err != nil {
			zap.L().Warn("textgen: backend failed, trying next",
				zap.String("backend", b.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if err := ExtractJSON(raw, out); err != nil {
			zap.L().Warn("textgen: backend returned unparsable output, trying next",
				zap.String("backend", b.Name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		return b.Name(), nil
	}
	if lastErr != nil {
		return "", eris.Wrap(lastErr, "textgen: all backends failed")
	}
	return "", eris.New("textgen: no backends configured")
}
