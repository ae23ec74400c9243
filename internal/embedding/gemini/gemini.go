// Package gemini embeds text through the Gemini API batchEmbedContents call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"google.golang.org/genai"

	"docsum/internal/domain"
)

const (
	DefaultModel     = "text-embedding-004"
	DefaultAPIKeyEnv = "GEMINI_API_KEY"
)

type Config struct {
	APIKey    string
	APIKeyEnv string
	BaseURL   string
	Timeout   time.Duration
}

type Client struct {
	client *genai.Client
}

var _ domain.EmbeddingProvider = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		env := cfg.APIKeyEnv
		if env == "" {
			env = DefaultAPIKeyEnv
		}
		key = os.Getenv(env)
		if key == "" {
			return nil, fmt.Errorf("missing API key in env %s", env)
		}
	}
	cc := &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		cc.HTTPOptions.Timeout = genai.Ptr(cfg.Timeout)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Name() string { return "gemini" }

// EmbedBatch sends every input as its own content in one request.
func (c *Client) EmbedBatch(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if model == "" {
		model = DefaultModel
	}
	contents := make([]*genai.Content, len(inputs))
	for i, in := range inputs {
		contents[i] = genai.NewContentFromText(in, genai.RoleUser)
	}
	resp, err := c.client.Models.EmbedContent(ctx, model, contents, nil)
	if err != nil {
		return nil, domain.NewServiceError(c.Name(), "embed", statusOf(err), err)
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e != nil {
			out[i] = e.Values
		}
	}
	return out, nil
}

func statusOf(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
