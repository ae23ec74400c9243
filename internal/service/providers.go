package service

import (
	"context"
	"fmt"
	"time"

	"docsum/internal/answer"
	"docsum/internal/chunker"
	"docsum/internal/config"
	"docsum/internal/domain"
	embgemini "docsum/internal/embedding/gemini"
	embopenai "docsum/internal/embedding/openai"
	"docsum/internal/embedding/tfidf"
	"docsum/internal/llm/anthropic"
	"docsum/internal/llm/extractive"
	"docsum/internal/llm/gemini"
	"docsum/internal/llm/openai"
	"docsum/internal/summarizer"
)

// NewFromConfig builds a Service with the providers named in cfg.
func NewFromConfig(ctx context.Context, cfg *config.AppConfig) (*Service, error) {
	ch, err := chunker.NewWindowChunker(cfg.Chunker.MaxChars, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}
	emb, err := NewEmbeddingProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding provider %s: %w", cfg.Embedding.Provider, err)
	}
	comp, err := NewCompleter(ctx, cfg, cfg.Completion.Provider)
	if err != nil {
		return nil, fmt.Errorf("completion provider %s: %w", cfg.Completion.Provider, err)
	}
	opts := Options{
		Chunker:        ch,
		Embedder:       emb,
		EmbeddingModel: cfg.Embedding.Model,
		Completer:      comp,
		Summary: summarizer.Options{
			Model:           cfg.Completion.Model,
			MaxOutputTokens: cfg.Summary.MaxOutputTokens,
			MaxInputChars:   cfg.Summary.MaxInputChars,
			HeaderLabels:    cfg.Summary.HeaderLabels,
		},
		Answer: answer.Options{
			Model:           cfg.Completion.Model,
			TopK:            cfg.Retrieval.TopK,
			MaxOutputTokens: cfg.Answer.MaxOutputTokens,
		},
		MaxFileMB: cfg.Input.MaxFileMB,
	}
	if name := cfg.Completion.CompareProvider; name != "" {
		cmp, err := NewCompleter(ctx, cfg, name)
		if err != nil {
			return nil, fmt.Errorf("compare provider %s: %w", name, err)
		}
		opts.CompareCompleter = cmp
		opts.CompareModel = cfg.Completion.CompareModel
	}
	return New(opts), nil
}

// NewCompleter constructs the named completion provider.
func NewCompleter(ctx context.Context, cfg *config.AppConfig, name string) (domain.Completer, error) {
	p := cfg.Provider(name)
	timeout := time.Duration(p.TimeoutSecs) * time.Second
	switch name {
	case "openai":
		return openai.NewClient(openai.Config{
			BaseURL:           p.BaseURL,
			APIKeyEnv:         p.APIKeyEnv,
			Timeout:           timeout,
			MaxRetries:        p.MaxRetries,
			RequestsPerSecond: p.RequestsPerSecond,
		})
	case "anthropic":
		return anthropic.NewClient(anthropic.Config{
			BaseURL:    p.BaseURL,
			APIKeyEnv:  p.APIKeyEnv,
			Timeout:    timeout,
			MaxRetries: p.MaxRetries,
		})
	case "gemini":
		return gemini.NewClient(ctx, gemini.Config{
			BaseURL:   p.BaseURL,
			APIKeyEnv: p.APIKeyEnv,
			Timeout:   timeout,
		})
	case "extractive":
		return extractive.New(), nil
	}
	return nil, fmt.Errorf("unknown completion provider %q", name)
}

// NewEmbeddingProvider constructs the configured embedding provider.
func NewEmbeddingProvider(ctx context.Context, cfg *config.AppConfig) (domain.EmbeddingProvider, error) {
	name := cfg.Embedding.Provider
	p := cfg.Provider(name)
	timeout := time.Duration(p.TimeoutSecs) * time.Second
	switch name {
	case "openai":
		return embopenai.NewClient(embopenai.Config{
			BaseURL:           p.BaseURL,
			APIKeyEnv:         p.APIKeyEnv,
			Timeout:           timeout,
			MaxRetries:        p.MaxRetries,
			RequestsPerSecond: p.RequestsPerSecond,
		})
	case "gemini":
		return embgemini.NewClient(ctx, embgemini.Config{
			BaseURL:   p.BaseURL,
			APIKeyEnv: p.APIKeyEnv,
			Timeout:   timeout,
		})
	case "tfidf":
		return tfidf.New(), nil
	}
	return nil, fmt.Errorf("unknown embedding provider %q", name)
}
