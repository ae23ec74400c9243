package index

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/chunker"
	"docsum/internal/domain"
	"docsum/internal/embedding"
	"docsum/internal/embedding/tfidf"
)

// keywordProvider embeds a text as counts of a fixed keyword list and records
// the model of every call.
type keywordProvider struct {
	mu       sync.Mutex
	keywords []string
	models   []string
	calls    int
	err      error
}

func (p *keywordProvider) Name() string { return "keyword" }

func (p *keywordProvider) EmbedBatch(_ context.Context, model string, inputs []string) ([][]float32, error) {
	p.mu.Lock()
	p.calls++
	p.models = append(p.models, model)
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		v := make([]float32, len(p.keywords))
		for j, kw := range p.keywords {
			v[j] = float32(strings.Count(strings.ToLower(in), kw))
		}
		out[i] = v
	}
	return out, nil
}

func newChunker(t *testing.T, maxChars, overlap int) *chunker.WindowChunker {
	t.Helper()
	c, err := chunker.NewWindowChunker(maxChars, overlap)
	require.NoError(t, err)
	return c
}

// Three 25-rune sentences so a 25-rune window yields one sentence per chunk.
const doc = "apples grow on tall trees" + "bananas are long & yellow" + "cherries are red and tiny"

const otherDoc = "rivers flow into the seas" + "mountains rise up so high"

func TestBuild_EmbedsAllChunksInOneCall(t *testing.T) {
	p := &keywordProvider{keywords: []string{"apple", "banana", "cherr"}}
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), embedding.NewAdapter(p))
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, "A", ix.Model())
	assert.Equal(t, 3, ix.Len())
	assert.Len(t, ix.Chunks(), 3)
}

func TestBuild_EmptyText(t *testing.T) {
	p := &keywordProvider{keywords: []string{"x"}}
	for _, text := range []string{"", "  \n\t "} {
		_, err := Build(context.Background(), text, "A", newChunker(t, 10, 0), embedding.NewAdapter(p))
		assert.ErrorIs(t, err, domain.ErrEmptyText)
	}
	assert.Zero(t, p.calls)
}

func TestBuild_ProviderFailureReturnsNoIndex(t *testing.T) {
	p := &keywordProvider{keywords: []string{"x"}, err: errors.New("connection refused")}
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), embedding.NewAdapter(p))
	assert.Nil(t, ix)
	assert.True(t, domain.IsServiceError(err))
}

func TestQuery_ReturnsMostRelevantChunk(t *testing.T) {
	p := &keywordProvider{keywords: []string{"apple", "banana", "cherr"}}
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), embedding.NewAdapter(p))
	require.NoError(t, err)

	got, err := ix.Query(context.Background(), "what colour are bananas?", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "bananas")
}

func TestQuery_UsesStoredModel(t *testing.T) {
	p := &keywordProvider{keywords: []string{"apple", "banana", "cherr"}}
	emb := embedding.NewAdapter(p)
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), emb)
	require.NoError(t, err)

	// A different model configured elsewhere must not leak into queries.
	_, err = emb.EmbedOne(context.Background(), "warm-up", "B")
	require.NoError(t, err)
	p.models = nil

	_, err = ix.Query(context.Background(), "cherries", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, p.models)
}

func TestSearch_ScoresAndBounds(t *testing.T) {
	p := &keywordProvider{keywords: []string{"apple", "banana", "cherr"}}
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), embedding.NewAdapter(p))
	require.NoError(t, err)

	res, err := ix.Search(context.Background(), "apples", 10)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.InDelta(t, 1.0, res[0].Score, 1e-6)
	for i := 1; i < len(res); i++ {
		assert.GreaterOrEqual(t, res[i-1].Score, res[i].Score)
	}

	none, err := ix.Search(context.Background(), "apples", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

type shrinkingProvider struct{ keywordProvider }

func (p *shrinkingProvider) EmbedBatch(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	out, err := p.keywordProvider.EmbedBatch(ctx, model, inputs)
	if len(inputs) == 1 {
		out[0] = out[0][:1]
	}
	return out, err
}

func TestSearch_DimensionMismatch(t *testing.T) {
	p := &shrinkingProvider{keywordProvider{keywords: []string{"apple", "banana", "cherr"}}}
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), embedding.NewAdapter(p))
	require.NoError(t, err)

	_, err = ix.Search(context.Background(), "apples", 1)
	assert.ErrorIs(t, err, domain.ErrModelMismatch)
}

func TestBuild_FitsLocalVectorizer(t *testing.T) {
	text := "Revenue grew twelve percent this quarter. " +
		"The office relocated downtown near the river. " +
		"Headcount stayed flat in every region."
	ix, err := Build(context.Background(), text, tfidf.ModelName, newChunker(t, 45, 0), embedding.NewAdapter(tfidf.New()))
	require.NoError(t, err)

	got, err := ix.Query(context.Background(), "which river is near downtown?", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "downtown near the river")
}

func TestSearch_ZeroQueryVectorKeepsDocumentOrder(t *testing.T) {
	// None of the keywords occur in the question, so it embeds to zeros and
	// every chunk scores the same.
	p := &keywordProvider{keywords: []string{"apple", "banana", "cherr"}}
	ix, err := Build(context.Background(), doc, "A", newChunker(t, 25, 0), embedding.NewAdapter(p))
	require.NoError(t, err)

	res, err := ix.Search(context.Background(), "which fruit is yellow", 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	for i, r := range res {
		assert.Equal(t, i, r.Chunk.Index)
		assert.Zero(t, r.Score)
	}
}

func TestBuild_LaterIndexDoesNotAffectEarlierOne(t *testing.T) {
	emb := embedding.NewAdapter(tfidf.New())
	ch := newChunker(t, 25, 0)

	first, err := Build(context.Background(), doc, tfidf.ModelName, ch, emb)
	require.NoError(t, err)
	before, err := first.Query(context.Background(), "bananas yellow", 1)
	require.NoError(t, err)
	require.Len(t, before, 1)

	_, err = Build(context.Background(), otherDoc, tfidf.ModelName, ch, emb)
	require.NoError(t, err)

	after, err := first.Query(context.Background(), "bananas yellow", 1)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, after[0].Index)
}

func TestBuild_ConcurrentBuildsOnSharedEmbedder(t *testing.T) {
	emb := embedding.NewAdapter(tfidf.New())
	ch := newChunker(t, 25, 0)
	docs := []string{doc, otherDoc}

	indexes := make([]*Index, len(docs))
	var wg sync.WaitGroup
	for i, d := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ix, err := Build(context.Background(), d, tfidf.ModelName, ch, emb)
			assert.NoError(t, err)
			indexes[i] = ix
		}()
	}
	wg.Wait()

	got, err := indexes[0].Query(context.Background(), "cherries red", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Index)

	got, err = indexes[1].Query(context.Background(), "mountains", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Text, "mountains")
}
