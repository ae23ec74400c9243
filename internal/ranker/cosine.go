// Package ranker implements exact cosine-similarity ranking over a small
// in-memory corpus of embedding vectors.
package ranker

import (
	"math"
	"sort"
)

// Epsilon is added to every L2 norm so zero vectors do not divide by zero.
const Epsilon = 1e-8

// Rank returns the indices of the k corpus vectors most similar to query,
// best first. Ties are broken by ascending corpus index.
func Rank(query []float32, corpus [][]float32, k int) []int {
	if k <= 0 || len(corpus) == 0 {
		return []int{}
	}
	return Top(Scores(query, corpus), k)
}

// Top returns the indices of the k highest scores, best first, ties broken
// by ascending index.
func Top(scores []float64, k int) []int {
	if k <= 0 || len(scores) == 0 {
		return []int{}
	}
	idxs := argsortDesc(scores)
	if k > len(idxs) {
		k = len(idxs)
	}
	return idxs[:k]
}

// Scores returns the cosine similarity of query against each corpus vector,
// in corpus order.
func Scores(query []float32, corpus [][]float32) []float64 {
	q := normalize(query)
	scores := make([]float64, len(corpus))
	for i, v := range corpus {
		scores[i] = dot(q, normalize(v))
	}
	return scores
}

func normalize(v []float32) []float64 {
	norm := 0.0
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm) + Epsilon
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return vals[idxs[i]] > vals[idxs[j]]
	})
	return idxs
}
