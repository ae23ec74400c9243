// Package answer composes context-grounded answers from a retrieval index.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"docsum/internal/domain"
	"docsum/internal/index"
)

const (
	DefaultTopK            = 5
	DefaultMaxOutputTokens = 300
	Temperature            = 0.2

	SystemPrompt = "You answer questions using only the provided context. If unsure, say you don't know."
)

type Options struct {
	Model           string
	TopK            int
	MaxOutputTokens int
}

// Composer retrieves the top-k chunks for a question and asks the completer
// to answer from them alone.
type Composer struct {
	completer domain.Completer
	opts      Options
	logger    *log.Logger
}

// Result is an answer plus the chunks it was grounded on.
type Result struct {
	Answer   string
	Sources  []domain.ScoredChunk
	Response domain.CompletionResponse
}

func New(completer domain.Completer, opts Options) *Composer {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return &Composer{completer: completer, opts: opts, logger: &log.DefaultLogger}
}

// WithTopK returns a copy of the composer retrieving k chunks.
func (c *Composer) WithTopK(k int) *Composer {
	cp := *c
	if k > 0 {
		cp.opts.TopK = k
	}
	return &cp
}

func (c *Composer) Answer(ctx context.Context, question string, idx *index.Index) (string, error) {
	res, err := c.AnswerWithSources(ctx, question, idx)
	if err != nil {
		return "", err
	}
	return res.Answer, nil
}

// AnswerWithSources is Answer that also returns the retrieved chunks and
// the raw completion response.
func (c *Composer) AnswerWithSources(ctx context.Context, question string, idx *index.Index) (Result, error) {
	sources, err := idx.Search(ctx, question, c.opts.TopK)
	if err != nil {
		return Result{}, fmt.Errorf("retrieve context: %w", err)
	}
	texts := make([]string, len(sources))
	for i, s := range sources {
		texts[i] = s.Chunk.Text
	}

	resp, err := c.completer.Complete(ctx, domain.CompletionRequest{
		Model: c.opts.Model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: SystemPrompt},
			{Role: domain.RoleUser, Content: BuildPrompt(strings.Join(texts, "\n\n"), question)},
		},
		MaxOutputTokens: c.opts.MaxOutputTokens,
		Temperature:     Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("answer: %w", err)
	}
	c.logger.Info().
		Str("provider", resp.Provider).
		Int("chunks", len(sources)).
		Dur("latency", resp.Latency).
		Msg("answer generated")
	return Result{Answer: strings.TrimSpace(resp.Content), Sources: sources, Response: resp}, nil
}

// BuildPrompt is the user message for a context block and question.
func BuildPrompt(contextBlock, question string) string {
	return "Context:\n" + contextBlock + "\n\nQuestion: " + question + "\nAnswer succinctly."
}
