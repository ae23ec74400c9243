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
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "text-embedding-3-small"
)

// Client is an OpenAI-compatible embeddings client. The model is chosen per
// call so one client can serve any index.
type Client struct {
	baseURL string
	apiKey  string
	http    *httpclient.Client
}

var _ domain.EmbeddingProvider = (*Client)(nil)

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL           string
	APIKey            string
	APIKeyEnv         string
	Timeout           time.Duration
	MaxRetries        int
	RequestsPerSecond float64
}

// NewClient creates a new embeddings client. APIKey wins over APIKeyEnv.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" && cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
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
	}, nil
}

// Name returns the identifier of this provider.
func (c *Client) Name() string { return "openai" }

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// EmbedBatch embeds all inputs with one POST to /embeddings. Vectors are
// placed by the response's index field; the count is returned as received so
// the adapter can reject mismatches.
func (c *Client) EmbedBatch(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if model == "" {
		model = DefaultModel
	}
	status, payload, err := c.http.PostJSON(ctx, c.baseURL+"/embeddings",
		map[string]string{"Authorization": "Bearer " + c.apiKey},
		embeddingRequest{Model: model, Input: inputs})
	if err != nil {
		return nil, domain.NewServiceError(c.Name(), "embed", status, err)
	}

	var out embeddingResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		if status != http.StatusOK {
			return nil, domain.NewServiceError(c.Name(), "embed", status, fmt.Errorf("%s", strings.TrimSpace(string(payload))))
		}
		return nil, domain.NewServiceError(c.Name(), "embed", status, fmt.Errorf("decode response: %w", err))
	}
	if out.Error != nil {
		return nil, domain.NewServiceError(c.Name(), "embed", status, fmt.Errorf("%s", out.Error.Message))
	}
	if status != http.StatusOK {
		return nil, domain.NewServiceError(c.Name(), "embed", status, fmt.Errorf("unexpected status"))
	}

	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		pos := d.Index
		if pos < 0 || pos >= len(vectors) || vectors[pos] != nil {
			pos = i
		}
		vectors[pos] = d.Embedding
	}
	return vectors, nil
}
