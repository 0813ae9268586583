package textgen

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

const claudeMaxTokens = 2048

// ClaudeBackend is the secondary classification backend, used when the
// primary fails or returns unparsable output.
type ClaudeBackend struct {
	client sdk.Client
	model  string
}

// NewClaude creates an Anthropic backend. Returns an error when the key is
// empty so callers can skip it in the chain.
func NewClaude(apiKey, model string) (*ClaudeBackend, error) {
	if apiKey == "" {
		return nil, eris.New("claude: missing API key")
	}
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &ClaudeBackend{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (c *ClaudeBackend) Name() string { return "claude" }

func (c *ClaudeBackend) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: claudeMaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "claude: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", eris.New("claude: response contains no text blocks")
	}
	return sb.String(), nil
}
