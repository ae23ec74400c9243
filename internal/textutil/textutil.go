// Package textutil holds the tokenizer and sentence splitter shared by the
// offline text models.
package textutil

import (
	"regexp"
	"strings"
)

var (
	wordPattern     = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)
	sentencePattern = regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|\n|$)`)
	stopwords       = buildStopwords()
)

// Words lower-cases text and returns its word and number tokens, stopwords
// removed.
func Words(text string) []string {
	raw := wordPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Sentences splits text on terminal punctuation and line breaks. Fragments
// without any letters or digits are dropped.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		s = strings.Join(strings.Fields(s), " ")
		if wordPattern.MatchString(strings.ToLower(s)) {
			out = append(out, s)
		}
	}
	return out
}

func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

func buildStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
		"what", "which", "who", "whom", "how", "why", "when", "where", "does", "do", "did",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
