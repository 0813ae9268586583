package textgen

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// GeminiBackend is the primary classification backend. Model candidates are
// tried in order per request; the first that answers wins.
type GeminiBackend struct {
	client *genai.Client
	models []string
}

// NewGemini creates a Gemini backend. Returns an error when the key is
// empty so callers can skip it in the chain.
func NewGemini(ctx context.Context, apiKey string, models []string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: missing API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	if len(models) == 0 {
		models = []string{"gemini-2.0-flash", "gemini-1.5-flash"}
	}
	return &GeminiBackend{client: client, models: models}, nil
}

func (g *GeminiBackend) Name() string { return "gemini" }

// GenerateJSON asks each configured model for a JSON response until one
// succeeds.
func (g *GeminiBackend) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for _, name := range g.models {
		model := g.client.GenerativeModel(name)
		model.SetTemperature(0.1)
		model.ResponseMIMEType = "application/json"

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			zap.L().Warn("gemini: model failed",
				zap.String("model", name),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		text, err := responseText(resp)
		if err != nil {
			lastErr = err
			continue
		}
		return text, nil
	}
	if lastErr != nil {
		return "", eris.Wrap(lastErr, "gemini: all model candidates failed")
	}
	return "", eris.New("gemini: no model candidates configured")
}

// Close releases the underlying gRPC connection.
func (g *GeminiBackend) Close() error {
	return g.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", eris.New("gemini: empty response")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", eris.New("gemini: response contains no text parts")
	}
	return sb.String(), nil
}
