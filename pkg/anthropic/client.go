// Package anthropic wraps the language-model collaborator behind a single
// completion call.
package anthropic

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client is the synthesis collaborator: prompt text in, answer text out.
// Prompt content is assembled by the orchestrator; this layer only moves it.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config tunes the completion call.
type Config struct {
	Model     string
	MaxTokens int64
	Timeout   time.Duration
}

// Option configures the sdkClient.
type Option func(*sdkClient)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(url string) Option {
	return func(c *sdkClient) {
		c.requestOpts = append(c.requestOpts, option.WithBaseURL(url))
	}
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	cfg         Config
	requestOpts []option.RequestOption
	client      sdk.Client
}

// NewClient creates an Anthropic client backed by the SDK.
func NewClient(apiKey string, cfg Config, opts ...Option) Client {
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	c := &sdkClient{
		cfg:         cfg,
		requestOpts: []option.RequestOption{option.WithAPIKey(apiKey)},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = sdk.NewClient(c.requestOpts...)
	return c
}

func (c *sdkClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", eris.Wrap(err, "anthropic: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	zap.L().Debug("anthropic: completion",
		zap.String("model", string(msg.Model)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return text, nil
}
