package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/domain"
)

type fakeProvider struct {
	vectors [][]float32
	err     error
	calls   int
	models  []string
	inputs  [][]string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) EmbedBatch(_ context.Context, model string, inputs []string) ([][]float32, error) {
	f.calls++
	f.models = append(f.models, model)
	f.inputs = append(f.inputs, inputs)
	return f.vectors, f.err
}

type fittingProvider struct {
	fakeProvider
	corpus []string
}

func (p *fittingProvider) Fit(corpus []string) (domain.EmbeddingProvider, error) {
	return &fittingProvider{fakeProvider: p.fakeProvider, corpus: corpus}, nil
}

func TestAdapter_Embed_SingleBatchedCall(t *testing.T) {
	p := &fakeProvider{vectors: [][]float32{{1}, {2}, {3}}}
	a := NewAdapter(p)

	got, err := a.Embed(context.Background(), []string{"a", "b", "c"}, "m1")
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}, {3}}, got)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, []string{"m1"}, p.models)
	assert.Equal(t, []string{"a", "b", "c"}, p.inputs[0])
}

func TestAdapter_Embed_CountMismatch(t *testing.T) {
	p := &fakeProvider{vectors: [][]float32{{1}, {2}, {3}, {4}}}
	a := NewAdapter(p)

	got, err := a.Embed(context.Background(), []string{"1", "2", "3", "4", "5"}, "m")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, domain.ErrCountMismatch)
	assert.True(t, domain.IsServiceError(err))
}

func TestAdapter_Embed_TooManyVectors(t *testing.T) {
	a := NewAdapter(&fakeProvider{vectors: [][]float32{{1}, {2}}})
	_, err := a.Embed(context.Background(), []string{"only"}, "m")
	assert.ErrorIs(t, err, domain.ErrCountMismatch)
}

func TestAdapter_Embed_ProviderErrorWrapped(t *testing.T) {
	a := NewAdapter(&fakeProvider{err: errors.New("connection refused")})
	_, err := a.Embed(context.Background(), []string{"x"}, "m")

	var se *domain.ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "fake", se.Provider)
	assert.Equal(t, "embed", se.Op)
}

func TestAdapter_Embed_EmptyInputNoCall(t *testing.T) {
	p := &fakeProvider{}
	got, err := NewAdapter(p).Embed(context.Background(), nil, "m")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, p.calls)
}

func TestAdapter_Embed_EmptyVectorRejected(t *testing.T) {
	a := NewAdapter(&fakeProvider{vectors: [][]float32{{1}, {}}})
	_, err := a.Embed(context.Background(), []string{"a", "b"}, "m")
	assert.True(t, domain.IsServiceError(err))
}

func TestAdapter_EmbedOne(t *testing.T) {
	p := &fakeProvider{vectors: [][]float32{{0.5, 0.5}}}
	v, err := NewAdapter(p).EmbedOne(context.Background(), "question", "m2")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, v)
	assert.Equal(t, []string{"m2"}, p.models)
}

func TestAdapter_Fit(t *testing.T) {
	p := &fittingProvider{}
	a := NewAdapter(p)
	fitted, err := a.Fit([]string{"one", "two"})
	require.NoError(t, err)

	assert.NotSame(t, a, fitted)
	assert.Nil(t, p.corpus)
	got, ok := fitted.Provider().(*fittingProvider)
	require.True(t, ok)
	assert.Equal(t, []string{"one", "two"}, got.corpus)

	plain := NewAdapter(&fakeProvider{})
	same, err := plain.Fit([]string{"x"})
	require.NoError(t, err)
	assert.Same(t, plain, same)
}
