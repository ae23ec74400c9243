// Package extractive is an offline Completer. It answers summary and
// question prompts by selecting sentences from the text embedded in the
// prompt, ranked by word frequency.
package extractive

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"docsum/internal/domain"
	"docsum/internal/textutil"
)

// ModelName is reported as the model of every response.
const ModelName = "extractive"

// Prompt markers the extractive model looks for in the last user message.
const (
	documentMarker = "Document:\n"
	contextMarker  = "Context:\n"
	questionMarker = "\n\nQuestion: "
)

// NoAnswer is returned when no context sentence shares a word with the
// question.
const NoAnswer = "I don't know based on the provided context."

// Completer selects sentences instead of generating text.
type Completer struct {
	summarySentences int
	bulletSentences  int
	answerSentences  int
}

var _ domain.Completer = (*Completer)(nil)

func New() *Completer {
	return &Completer{summarySentences: 3, bulletSentences: 6, answerSentences: 2}
}

func (c *Completer) Name() string { return "extractive" }

func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.CompletionResponse{}, err
	}
	start := time.Now()
	prompt := lastUserMessage(req.Messages)
	if prompt == "" {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", 0, errors.New("no user message"))
	}

	var content string
	if i := strings.Index(prompt, contextMarker); i >= 0 {
		body := prompt[i+len(contextMarker):]
		question := ""
		if j := strings.LastIndex(body, questionMarker); j >= 0 {
			question = firstLine(body[j+len(questionMarker):])
			body = body[:j]
		}
		content = c.answer(body, question)
	} else {
		body := prompt
		if i := strings.LastIndex(prompt, documentMarker); i >= 0 {
			body = prompt[i+len(documentMarker):]
		}
		content = c.summarize(body)
	}
	if content == "" {
		return domain.CompletionResponse{}, domain.NewServiceError(c.Name(), "complete", 0, errors.New("no sentences to extract"))
	}
	return domain.CompletionResponse{
		Content:  content,
		Provider: c.Name(),
		Model:    ModelName,
		Latency:  time.Since(start),
	}, nil
}

// summarize renders the top sentences as a paragraph followed by "- " bullets
// of the next best ones, each group kept in document order.
func (c *Completer) summarize(text string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return ""
	}
	ranked := rankByFrequency(sentences)

	n := min(c.summarySentences, len(ranked))
	head := inDocumentOrder(ranked[:n])
	tail := inDocumentOrder(ranked[n:min(n+c.bulletSentences, len(ranked))])

	var b strings.Builder
	for i, idx := range head {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentences[idx])
	}
	for _, idx := range tail {
		b.WriteString("\n- ")
		b.WriteString(sentences[idx])
	}
	return b.String()
}

// answer returns the context sentences sharing the most question words.
func (c *Completer) answer(passage, question string) string {
	sentences := textutil.Sentences(passage)
	if len(sentences) == 0 {
		return ""
	}
	qwords := make(map[string]struct{})
	for _, w := range textutil.Words(question) {
		qwords[w] = struct{}{}
	}

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, s := range sentences {
		words := textutil.Words(s)
		overlap := 0
		for _, w := range words {
			if _, ok := qwords[w]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			hits = append(hits, scored{i, float64(overlap) / math.Sqrt(float64(len(words)))})
		}
	}
	if len(hits) == 0 {
		return NoAnswer
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	picked := make([]int, 0, c.answerSentences)
	for _, h := range hits[:min(c.answerSentences, len(hits))] {
		picked = append(picked, h.idx)
	}
	sort.Ints(picked)
	out := make([]string, len(picked))
	for i, idx := range picked {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " ")
}

// rankByFrequency orders sentence indices by the normalised frequency of
// their words, divided by the square root of sentence length.
func rankByFrequency(sentences []string) []int {
	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, s := range sentences {
		tokens[i] = textutil.Words(s)
		for _, t := range tokens[i] {
			freq[t]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}

	scores := make([]float64, len(sentences))
	for i, toks := range tokens {
		if len(toks) == 0 || maxF == 0 {
			continue
		}
		for _, t := range toks {
			scores[i] += freq[t] / maxF
		}
		scores[i] /= math.Sqrt(float64(len(toks)))
	}

	idxs := make([]int, len(sentences))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	return idxs
}

func inDocumentOrder(idxs []int) []int {
	out := append([]int(nil), idxs...)
	sort.Ints(out)
	return out
}

func lastUserMessage(msgs []domain.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == domain.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
