// Package tfidf is a local embedding provider: a TF-IDF vectorizer fitted on
// the document's own chunks. It needs no network access and ignores the
// model argument.
package tfidf

import (
	"context"
	"errors"
	"math"
	"sort"

	"docsum/internal/domain"
	"docsum/internal/textutil"
)

// ModelName is the identifier recorded in an index built with this provider.
const ModelName = "tfidf"

// Vectorizer builds a vocabulary from the corpus and embeds texts as
// L2-normalised TF-IDF vectors. A fitted Vectorizer is never modified.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

var (
	_ domain.EmbeddingProvider = (*Vectorizer)(nil)
	_ domain.Fitter            = (*Vectorizer)(nil)
)

// New creates an unfitted vectorizer. It only embeds after Fit.
func New() *Vectorizer {
	return &Vectorizer{vocabulary: make(map[string]int)}
}

func (v *Vectorizer) Name() string { return ModelName }

// Fit returns a new vectorizer fitted on corpus; v is left as it was.
func (v *Vectorizer) Fit(corpus []string) (domain.EmbeddingProvider, error) {
	fitted, err := Fit(corpus)
	if err != nil {
		return nil, err
	}
	return fitted, nil
}

// Fit builds the vocabulary and smoothed IDF weights of corpus.
func Fit(corpus []string) (*Vectorizer, error) {
	if len(corpus) == 0 {
		return nil, errors.New("empty corpus for TF-IDF fit")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range textutil.Words(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return nil, errors.New("no tokens found in corpus")
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return &Vectorizer{vocabulary: vocab, idf: idf}, nil
}

// Dimension is the vocabulary size, zero before Fit.
func (v *Vectorizer) Dimension() int { return len(v.idf) }

// EmbedBatch embeds each input against the fitted vocabulary.
func (v *Vectorizer) EmbedBatch(_ context.Context, _ string, inputs []string) ([][]float32, error) {
	if len(v.idf) == 0 {
		return nil, errors.New("tfidf vectorizer not fitted")
	}
	out := make([][]float32, len(inputs))
	for i, text := range inputs {
		out[i] = v.embed(text)
	}
	return out, nil
}

func (v *Vectorizer) embed(text string) []float32 {
	vec := make([]float32, len(v.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range textutil.Words(text) {
		if idx, ok := v.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec
	}
	norm := 0.0
	weights := make(map[int]float64, len(tf))
	for idx, count := range tf {
		w := float64(count) / float64(total) * v.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx, w := range weights {
		vec[idx] = float32(w / norm)
	}
	return vec
}
