// Package gemini is a completion client for the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"docsum/internal/domain"
)

const (
	DefaultModel     = "gemini-2.0-flash"
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

var _ domain.Completer = (*Client)(nil)

func NewClient(ctx context.Context, cfg Config) (*Client, error) {
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

// Complete sends system messages as the system instruction and everything
// else as user turns.
func (c *Client) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	var contents []*genai.Content
	var system []string
	for _, m := range req.Messages {
		if m.Role == domain.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", statusOf(err), err)
	}
	text := resp.Text()
	out := domain.CompletionResponse{
		Content:  text,
		Provider: c.Name(),
		Model:    model,
		Latency:  time.Since(start),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if u := resp.UsageMetadata; u != nil {
		out.InputTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
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
