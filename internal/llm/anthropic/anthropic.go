// Package anthropic is a completion client for the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"docsum/internal/domain"
)

const (
	DefaultModel     = "claude-3-5-haiku-latest"
	DefaultAPIKeyEnv = "ANTHROPIC_API_KEY"
	DefaultTimeout   = 120 * time.Second

	// defaultMaxTokens is used when a request leaves the limit unset; the
	// Messages API requires one.
	defaultMaxTokens = 1024
)

type Config struct {
	BaseURL    string
	APIKey     string
	APIKeyEnv  string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	client anthropic.Client
}

var _ domain.Completer = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	env := cfg.APIKeyEnv
	if env == "" {
		env = DefaultAPIKeyEnv
	}
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(env)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", env)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{client: anthropic.NewClient(opts...)}, nil
}

func (c *Client) Name() string { return "anthropic" }

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	var system []string
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", statusOf(err), err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return domain.CompletionResponse{
		Content:      text.String(),
		Provider:     c.Name(),
		Model:        string(resp.Model),
		Latency:      time.Since(start),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func statusOf(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
