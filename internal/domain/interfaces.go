package domain

import (
	"context"
	"time"
)

// Chunk is a contiguous window of the source document used for retrieval.
// Start and End are rune offsets into the document text.
type Chunk struct {
	Index int
	Text  string
	Start int
	End   int
}

// ScoredChunk is a retrieved chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Summary is the parsed summarizer reply: one paragraph plus key points.
type Summary struct {
	Text    string
	Bullets []string
}

// Message roles understood by every completion provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// Message is a single chat message sent to a completion provider.
type Message struct {
	Role    string
	Content string
}

// CompletionRequest is the provider-neutral shape of a chat completion call.
type CompletionRequest struct {
	Model           string
	Messages        []Message
	MaxOutputTokens int
	Temperature     float64
}

// CompletionResponse carries the reply text plus the usage figures reported
// by the provider.
type CompletionResponse struct {
	Content      string
	Provider     string
	Model        string
	Latency      time.Duration
	InputTokens  int
	OutputTokens int
}

// Completer issues chat completion requests to a hosted language model.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// EmbeddingProvider converts texts into vectors with a single batched call.
// The returned slice must be in input order.
type EmbeddingProvider interface {
	Name() string
	EmbedBatch(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

// Fitter is implemented by embedding providers that must be fitted on the
// chunk corpus before they can embed anything (local vectorizers). Fit
// leaves the receiver untouched and returns a new fitted provider.
type Fitter interface {
	Fit(corpus []string) (EmbeddingProvider, error)
}

// Chunker splits document text into ordered chunks.
type Chunker interface {
	Chunk(text string) ([]Chunk, error)
}

// Summarizer produces a summary paragraph and bullet list for a document.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (Summary, error)
}

// TextExtractor turns a document on disk into a single text blob.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}
