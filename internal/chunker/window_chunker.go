package chunker

import (
	"fmt"

	"docsum/internal/domain"
)

const (
	DefaultMaxChars = 1500
	DefaultOverlap  = 200
)

// WindowChunker splits text into fixed-size character windows with overlap.
// Sizes are counted in runes.
type WindowChunker struct {
	maxChars int
	overlap  int
}

var _ domain.Chunker = (*WindowChunker)(nil)

func NewWindowChunker(maxChars, overlap int) (*WindowChunker, error) {
	if maxChars <= 0 {
		return nil, fmt.Errorf("%w: max_chars must be positive, got %d", domain.ErrInvalidChunking, maxChars)
	}
	if overlap < 0 {
		overlap = 0
	}
	return &WindowChunker{maxChars: maxChars, overlap: overlap}, nil
}

func (c *WindowChunker) MaxChars() int { return c.maxChars }
func (c *WindowChunker) Overlap() int  { return c.overlap }

func (c *WindowChunker) Chunk(text string) ([]domain.Chunk, error) {
	return Split(text, c.maxChars, c.overlap), nil
}

// Split walks a cursor over text and emits windows of at most maxChars runes.
// After each window that does not reach the end, the cursor moves to
// cursor+maxChars-overlap. When overlap >= maxChars the cursor still advances
// by one rune so the walk always terminates.
func Split(text string, maxChars, overlap int) []domain.Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, 0, n/maxChars+1)
	cursor := 0
	for idx := 0; ; idx++ {
		end := cursor + maxChars
		if end > n {
			end = n
		}
		chunks = append(chunks, domain.Chunk{
			Index: idx,
			Text:  string(runes[cursor:end]),
			Start: cursor,
			End:   end,
		})
		if end == n {
			break
		}
		next := cursor + maxChars - overlap
		if next <= cursor {
			next = cursor + 1
		}
		cursor = next
	}
	return chunks
}
