// Package summarizer asks a completion model for a one-paragraph summary and
// a list of key points, and parses the free-text reply into both.
package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"docsum/internal/domain"
)

const (
	DefaultMaxInputChars   = 20000
	DefaultMaxOutputTokens = 512
	Temperature            = 0.2

	SystemPrompt = "You are a helpful assistant."
	Instruction  = "You are an analyst. Summarize the following document in a concise paragraph, " +
		"then extract 5-8 key bullet points. Be concrete and faithful to the text."
)

// DefaultHeaderLabels are reply lines the parser never turns into bullets.
var DefaultHeaderLabels = []string{
	"summary", "summary:",
	"key points", "key points:",
	"insights", "insights:",
	"key insights", "key insights:",
	"bullet points", "bullet points:",
}

type Options struct {
	Model           string
	MaxOutputTokens int
	MaxInputChars   int
	HeaderLabels    []string
}

// Summarizer implements domain.Summarizer on top of a Completer.
type Summarizer struct {
	completer domain.Completer
	opts      Options
	labels    map[string]struct{}
	logger    *log.Logger
}

var _ domain.Summarizer = (*Summarizer)(nil)

func New(completer domain.Completer, opts Options) *Summarizer {
	if opts.MaxOutputTokens <= 0 {
		opts.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if opts.MaxInputChars <= 0 {
		opts.MaxInputChars = DefaultMaxInputChars
	}
	if opts.HeaderLabels == nil {
		opts.HeaderLabels = DefaultHeaderLabels
	}
	labels := make(map[string]struct{}, len(opts.HeaderLabels))
	for _, l := range opts.HeaderLabels {
		labels[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return &Summarizer{completer: completer, opts: opts, labels: labels, logger: &log.DefaultLogger}
}

// Summarize sends the first MaxInputChars runes of text in one completion
// request and parses the reply.
func (s *Summarizer) Summarize(ctx context.Context, text string) (domain.Summary, error) {
	resp, err := s.Complete(ctx, text)
	if err != nil {
		return domain.Summary{}, err
	}
	return s.ParseReply(resp.Content), nil
}

// Complete is Summarize without parsing, for callers that also report
// latency and token usage.
func (s *Summarizer) Complete(ctx context.Context, text string) (domain.CompletionResponse, error) {
	doc, truncated := truncateRunes(text, s.opts.MaxInputChars)
	if truncated {
		s.logger.Debug().Int("limit", s.opts.MaxInputChars).Msg("document truncated for summary")
	}
	req := domain.CompletionRequest{
		Model: s.opts.Model,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: SystemPrompt},
			{Role: domain.RoleUser, Content: BuildPrompt(doc)},
		},
		MaxOutputTokens: s.opts.MaxOutputTokens,
		Temperature:     Temperature,
	}
	start := time.Now()
	resp, err := s.completer.Complete(ctx, req)
	if err != nil {
		return domain.CompletionResponse{}, fmt.Errorf("summarize: %w", err)
	}
	s.logger.Info().
		Str("provider", resp.Provider).
		Str("model", resp.Model).
		Int("output_tokens", resp.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("summary generated")
	return resp, nil
}

// BuildPrompt is the user message sent for a (possibly truncated) document.
func BuildPrompt(doc string) string {
	return Instruction + "\n\nDocument:\n" + doc
}

// ParseReply splits a reply into summary lines and bullets. Every non-empty
// line after the first "-" or "*" line is a bullet, marker or not. Header
// label lines are never emitted as bullets; summary lines are kept as they
// are. With no lines at all the raw reply is returned.
func (s *Summarizer) ParseReply(reply string) domain.Summary {
	var lines []string
	for _, l := range strings.Split(reply, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return domain.Summary{Text: reply}
	}

	var summary, bullets []string
	inBullets := false
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*"):
			inBullets = true
			if s.isHeader(line) {
				continue
			}
			if b := strings.TrimSpace(strings.TrimLeft(line, "-* \t")); b != "" {
				bullets = append(bullets, b)
			}
		case inBullets:
			if !s.isHeader(line) {
				bullets = append(bullets, line)
			}
		default:
			summary = append(summary, line)
		}
	}

	text := strings.TrimSpace(strings.Join(summary, " "))
	if text == "" {
		text = reply
	}
	return domain.Summary{Text: text, Bullets: bullets}
}

func (s *Summarizer) isHeader(line string) bool {
	label := strings.ToLower(strings.TrimSpace(strings.Trim(line, "-*#_ \t")))
	_, ok := s.labels[label]
	return ok
}

func truncateRunes(s string, n int) (string, bool) {
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
