package ranker

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_IdenticalVectorFirst(t *testing.T) {
	query := []float32{0.3, -1.2, 4.5}
	corpus := [][]float32{
		{0.3, -1.2, 4.5},
		{1, 0, 0},
		{-0.3, 1.2, -4.5},
	}

	got := Rank(query, corpus, 1)
	require.Equal(t, []int{0}, got)

	scores := Scores(query, corpus)
	assert.InDelta(t, 1.0, scores[0], 1e-6)
	assert.InDelta(t, -1.0, scores[2], 1e-6)
}

func TestRank_ScaleInvariant(t *testing.T) {
	query := []float32{1, 2, 3}
	corpus := [][]float32{
		{3, 2, 1},
		{1, 2, 2.9},
		{0, 1, 0},
		{-1, -2, -3},
	}
	want := Rank(query, corpus, len(corpus))

	for _, factor := range []float32{0.001, 2, 1000} {
		scaledQuery := make([]float32, len(query))
		for i, v := range query {
			scaledQuery[i] = v * factor
		}
		scaledCorpus := make([][]float32, len(corpus))
		for i, vec := range corpus {
			scaledCorpus[i] = make([]float32, len(vec))
			for j, v := range vec {
				scaledCorpus[i][j] = v * factor
			}
		}
		assert.Equal(t, want, Rank(scaledQuery, scaledCorpus, len(corpus)), "factor %v", factor)
	}
	assert.Equal(t, []int{1, 0, 2, 3}, want)
}

func TestRank_TiesBreakByIndex(t *testing.T) {
	query := []float32{1, 0}
	corpus := [][]float32{
		{0, 1},
		{2, 0},
		{0, 1},
		{2, 0},
	}
	assert.Equal(t, []int{1, 3, 0, 2}, Rank(query, corpus, 4))
}

func TestRank_Bounds(t *testing.T) {
	corpus := [][]float32{{1, 0}, {0, 1}}

	assert.Len(t, Rank([]float32{1, 1}, corpus, 5), 2)
	assert.Empty(t, Rank([]float32{1, 1}, corpus, 0))
	assert.Empty(t, Rank([]float32{1, 1}, nil, 3))
}

func TestScores_ZeroVector(t *testing.T) {
	scores := Scores([]float32{0, 0, 0}, [][]float32{{1, 2, 3}, {0, 0, 0}})
	for _, s := range scores {
		assert.False(t, math.IsNaN(s))
		assert.InDelta(t, 0.0, s, 1e-9)
	}
}

func TestTop(t *testing.T) {
	scores := []float64{0.2, 0.9, 0.2, -1}

	assert.Equal(t, []int{1, 0}, Top(scores, 2))
	assert.Equal(t, []int{1, 0, 2, 3}, Top(scores, 10))
	assert.Empty(t, Top(scores, 0))
	assert.Empty(t, Top(nil, 3))
}
