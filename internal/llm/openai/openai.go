// Package openai is a chat completion client for OpenAI-compatible APIs.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"docsum/internal/domain"
	"docsum/internal/httpclient"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o-mini"
	DefaultAPIKeyEnv = "OPENAI_API_KEY"
)

type Config struct {
	BaseURL           string
	APIKey            string
	APIKeyEnv         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// Client calls POST /chat/completions.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
	now     func() time.Time
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
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  key,
		http: httpclient.New(httpclient.Config{
			Timeout:           cfg.Timeout,
			MaxRetries:        cfg.MaxRetries,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}),
		now: time.Now,
	}, nil
}

func (c *Client) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	body := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	start := c.now()
	status, payload, err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, body)
	if err != nil {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", status, err)
	}
	latency := c.now().Sub(start)

	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		if status != http.StatusOK {
			return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", status,
				fmt.Errorf("%s", strings.TrimSpace(string(payload))))
		}
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", status, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != nil {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", status, fmt.Errorf("%s", out.Error.Message))
	}
	if status != http.StatusOK {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", status, fmt.Errorf("unexpected status"))
	}
	if len(out.Choices) == 0 {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", status, fmt.Errorf("no choices returned"))
	}
	if out.Model != "" {
		model = out.Model
	}
	return domain.CompletionResponse{
		Content:      out.Choices[0].Message.Content,
		Provider:     c.Name(),
		Model:        model,
		Latency:      latency,
		InputTokens:  out.Usage.PromptTokens,
		OutputTokens: out.Usage.CompletionTokens,
	}, nil
}
