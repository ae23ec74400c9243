// Package index holds the in-memory retrieval index for one document: its
// chunks, their embeddings, and the embedding model that produced them.
package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"docsum/internal/domain"
	"docsum/internal/embedding"
	"docsum/internal/ranker"
)

// Index is immutable after Build and safe for concurrent queries. It keeps
// the embedder its vectors came from, so a local vectorizer fitted for
// another document never changes how this one is queried.
type Index struct {
	chunks   []domain.Chunk
	vectors  [][]float32
	model    string
	embedder *embedding.Adapter
}

// Build chunks text, embeds every chunk in one batched call and records the
// model used. Providers that need fitting are fitted on the chunks into a
// private copy; emb itself is not modified. It never returns a partial index.
func Build(ctx context.Context, text, model string, chunker domain.Chunker, emb *embedding.Adapter) (*Index, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyText
	}
	start := time.Now()

	chunks, err := chunker.Chunk(text)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	emb, err = emb.Fit(texts)
	if err != nil {
		return nil, fmt.Errorf("fit embedder: %w", err)
	}
	vectors, err := emb.Embed(ctx, texts, model)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.NewServiceError(emb.Provider().Name(), "embed", 0,
			fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrCountMismatch, len(vectors), len(chunks)))
	}

	log.Info().
		Str("provider", emb.Provider().Name()).
		Str("model", model).
		Int("chunks", len(chunks)).
		Dur("duration", time.Since(start)).
		Msg("index built")

	return &Index{chunks: chunks, vectors: vectors, model: model, embedder: emb}, nil
}

// Model is the embedding model the chunk vectors were produced with.
func (ix *Index) Model() string { return ix.model }

func (ix *Index) Len() int { return len(ix.chunks) }

// Chunks returns a copy of the indexed chunks in document order.
func (ix *Index) Chunks() []domain.Chunk {
	out := make([]domain.Chunk, len(ix.chunks))
	copy(out, ix.chunks)
	return out
}

// Query returns the k chunks most similar to question, best first.
func (ix *Index) Query(ctx context.Context, question string, k int) ([]domain.Chunk, error) {
	scored, err := ix.Search(ctx, question, k)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Chunk, len(scored))
	for i, s := range scored {
		out[i] = s.Chunk
	}
	return out, nil
}

// Search is Query with the cosine similarity of each returned chunk. The
// question is always embedded with the index's own model.
func (ix *Index) Search(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(ix.chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}
	q, err := ix.embedder.EmbedOne(ctx, question, ix.model)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(q) != len(ix.vectors[0]) {
		return nil, fmt.Errorf("%w: question vector has %d dimensions, index has %d",
			domain.ErrModelMismatch, len(q), len(ix.vectors[0]))
	}
	if isZero(q) {
		log.Debug().Str("model", ix.model).Msg("question shares no terms with the index")
	}

	scores := ranker.Scores(q, ix.vectors)
	order := ranker.Top(scores, k)
	out := make([]domain.ScoredChunk, len(order))
	for i, j := range order {
		out[i] = domain.ScoredChunk{Chunk: ix.chunks[j], Score: scores[j]}
	}
	return out, nil
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
