// Package openai implements ai.Provider with the OpenAI chat completions API
package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/itsinfi/prompt-with-friends-backend/internal/ai"
)

const DefaultModel = "gpt-3.5-turbo"

// Config holds OpenAI client settings
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxRetries of zero disables the client's retry loop
	MaxRetries int
}

// Client sends each prompt as a single system message
type Client struct {
	client openai.Client
	model  string
}

var _ ai.Provider = (*Client)(nil)

// New creates a Client
func New(cfg Config) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		// Request paths are resolved relative to the base URL
		baseURL := cfg.BaseURL
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ai.ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ai.ErrEmptyCompletion
	}
	return content, nil
}
