// Package embedding turns chunk and question texts into vectors through an
// external embedding provider.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/phuslu/log"

	"docsum/internal/domain"
)

// Adapter wraps an EmbeddingProvider and enforces the one-vector-per-input
// contract.
type Adapter struct {
	provider domain.EmbeddingProvider
	logger   *log.Logger
}

func NewAdapter(provider domain.EmbeddingProvider) *Adapter {
	return &Adapter{provider: provider, logger: &log.DefaultLogger}
}

// WithLogger replaces the adapter's logger.
func (a *Adapter) WithLogger(l *log.Logger) *Adapter {
	if l != nil {
		a.logger = l
	}
	return a
}

// Provider returns the wrapped provider.
func (a *Adapter) Provider() domain.EmbeddingProvider { return a.provider }

// Embed embeds texts with model in a single batched call. The result has
// exactly len(texts) vectors in input order, or an error.
func (a *Adapter) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	start := time.Now()
	vectors, err := a.provider.EmbedBatch(ctx, model, texts)
	if err != nil {
		if domain.IsServiceError(err) {
			return nil, err
		}
		return nil, domain.NewServiceError(a.provider.Name(), "embed", 0, err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.NewServiceError(a.provider.Name(), "embed", 0,
			fmt.Errorf("%w: got %d vectors for %d inputs", domain.ErrCountMismatch, len(vectors), len(texts)))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, domain.NewServiceError(a.provider.Name(), "embed", 0,
				fmt.Errorf("empty vector at position %d", i))
		}
	}
	a.logger.Debug().
		Str("provider", a.provider.Name()).
		Str("model", model).
		Int("inputs", len(texts)).
		Int("dimension", len(vectors[0])).
		Dur("duration", time.Since(start)).
		Msg("embedded batch")
	return vectors, nil
}

// EmbedOne embeds a single text, typically a question.
func (a *Adapter) EmbedOne(ctx context.Context, text, model string) ([]float32, error) {
	vectors, err := a.Embed(ctx, []string{text}, model)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Fit returns an adapter over a provider fitted on corpus. Providers that
// need no fitting are shared and a is returned as is.
func (a *Adapter) Fit(corpus []string) (*Adapter, error) {
	f, ok := a.provider.(domain.Fitter)
	if !ok {
		return a, nil
	}
	fitted, err := f.Fit(corpus)
	if err != nil {
		return nil, err
	}
	return &Adapter{provider: fitted, logger: a.logger}, nil
}
