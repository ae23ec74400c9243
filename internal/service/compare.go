package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"docsum/internal/domain"
)

// ErrNoCompare is returned by compare calls when no second provider is
// configured.
var ErrNoCompare = errors.New("compare mode needs a second completion provider")

// Outcome is one provider's result in a comparison. A failed provider has
// Err set and does not fail the comparison.
type Outcome struct {
	Provider string
	Model    string
	Summary  domain.Summary
	Answer   string
	Response domain.CompletionResponse
	Err      error
}

func (s *Service) engines() ([]Engine, error) {
	if s.compare == nil {
		return nil, ErrNoCompare
	}
	return []Engine{s.primary, *s.compare}, nil
}

// CompareSummaries summarizes text with both providers concurrently.
func (s *Service) CompareSummaries(ctx context.Context, text string) ([]Outcome, error) {
	engines, err := s.engines()
	if err != nil {
		return nil, err
	}
	out := make([]Outcome, len(engines))
	var g errgroup.Group
	for i, e := range engines {
		g.Go(func() error {
			o := Outcome{Provider: e.Completer.Name(), Model: e.Model}
			o.Response, o.Err = e.Summarizer.Complete(ctx, text)
			if o.Err == nil {
				o.Summary = e.Summarizer.ParseReply(o.Response.Content)
			}
			out[i] = o
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}

// CompareAnswers answers question from the session's index with both
// providers concurrently.
func (sess *Session) CompareAnswers(ctx context.Context, question string, k int) ([]Outcome, error) {
	engines, err := sess.svc.engines()
	if err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("question is empty")
	}
	out := make([]Outcome, len(engines))
	var g errgroup.Group
	for i, e := range engines {
		g.Go(func() error {
			o := Outcome{Provider: e.Completer.Name(), Model: e.Model}
			res, err := e.Composer.WithTopK(k).AnswerWithSources(ctx, question, sess.Index)
			o.Answer, o.Response, o.Err = res.Answer, res.Response, err
			out[i] = o
			return nil
		})
	}
	_ = g.Wait()
	return out, ctx.Err()
}
