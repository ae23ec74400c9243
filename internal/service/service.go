// Package service wires extraction, summarization and retrieval into a
// document session.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"docsum/internal/answer"
	"docsum/internal/domain"
	"docsum/internal/embedding"
	"docsum/internal/extract"
	"docsum/internal/index"
	"docsum/internal/summarizer"
)

// Service holds the configured components and is not modified after New.
// Each Load builds an index with its own fitted embedder, so concurrent
// loads and questions on different sessions do not interfere.
type Service struct {
	extractorFor   func(path string) (domain.TextExtractor, error)
	maxFileMB      int
	chunker        domain.Chunker
	embedder       *embedding.Adapter
	embeddingModel string
	primary        Engine
	// compare is the second engine for side by side runs, if configured.
	compare *Engine
}

// Engine is one completer with the summarizer and composer built on it.
type Engine struct {
	Completer  domain.Completer
	Model      string
	Summarizer *summarizer.Summarizer
	Composer   *answer.Composer
}

// Options configures New.
type Options struct {
	Chunker        domain.Chunker
	Embedder       domain.EmbeddingProvider
	EmbeddingModel string
	Completer      domain.Completer
	Summary        summarizer.Options
	Answer         answer.Options
	// CompareCompleter and CompareModel enable compare mode.
	CompareCompleter domain.Completer
	CompareModel     string
	MaxFileMB        int
	// ExtractorFor overrides extension based extractor selection.
	ExtractorFor func(path string) (domain.TextExtractor, error)
}

func New(opts Options) *Service {
	s := &Service{
		extractorFor:   opts.ExtractorFor,
		maxFileMB:      opts.MaxFileMB,
		chunker:        opts.Chunker,
		embedder:       embedding.NewAdapter(opts.Embedder),
		embeddingModel: opts.EmbeddingModel,
	}
	if s.extractorFor == nil {
		s.extractorFor = extract.ForPath
	}
	s.primary = newEngine(opts.Completer, opts.Summary, opts.Answer)
	if opts.CompareCompleter != nil {
		sum, ans := opts.Summary, opts.Answer
		sum.Model, ans.Model = opts.CompareModel, opts.CompareModel
		e := newEngine(opts.CompareCompleter, sum, ans)
		s.compare = &e
	}
	return s
}

func newEngine(c domain.Completer, sum summarizer.Options, ans answer.Options) Engine {
	return Engine{
		Completer:  c,
		Model:      sum.Model,
		Summarizer: summarizer.New(c, sum),
		Composer:   answer.New(c, ans),
	}
}

// CanCompare reports whether a second completer is configured.
func (s *Service) CanCompare() bool { return s.compare != nil }

// Summarizer exposes the primary summarizer.
func (s *Service) Summarizer() *summarizer.Summarizer { return s.primary.Summarizer }

// ExtractText checks the size limit and extracts the document's text.
func (s *Service) ExtractText(ctx context.Context, path string) (string, error) {
	if err := extract.CheckSize(path, s.maxFileMB); err != nil {
		return "", err
	}
	ex, err := s.extractorFor(path)
	if err != nil {
		return "", err
	}
	text, err := ex.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrExtractionEmpty
	}
	return text, nil
}

// Session is one loaded document: its text, summary and retrieval index.
type Session struct {
	ID              string
	Path            string
	Text            string
	Summary         domain.Summary
	SummaryResponse domain.CompletionResponse
	Index           *index.Index
	LoadTime        time.Duration

	svc *Service
}

// Load extracts the document, then summarizes it and builds its index
// concurrently. Either failure fails the load.
func (s *Service) Load(ctx context.Context, path string) (*Session, error) {
	return s.load(ctx, path, true)
}

// LoadIndex is Load without the summary, for one-off questions.
func (s *Service) LoadIndex(ctx context.Context, path string) (*Session, error) {
	return s.load(ctx, path, false)
}

func (s *Service) load(ctx context.Context, path string, withSummary bool) (*Session, error) {
	start := time.Now()
	sess := &Session{ID: uuid.NewString(), Path: path, svc: s}
	logger := log.DefaultLogger
	logger.Context = log.NewContext(nil).Str("session", sess.ID).Str("file", filepath.Base(path)).Value()

	text, err := s.ExtractText(ctx, path)
	if err != nil {
		return nil, err
	}
	sess.Text = text
	logger.Info().Int("chars", len(text)).Msg("document extracted")

	g, gctx := errgroup.WithContext(ctx)
	if withSummary {
		g.Go(func() error {
			resp, err := s.primary.Summarizer.Complete(gctx, text)
			if err != nil {
				return err
			}
			sess.SummaryResponse = resp
			sess.Summary = s.primary.Summarizer.ParseReply(resp.Content)
			return nil
		})
	}
	g.Go(func() error {
		ix, err := index.Build(gctx, text, s.embeddingModel, s.chunker, s.embedder)
		if err != nil {
			return err
		}
		sess.Index = ix
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sess.LoadTime = time.Since(start)
	logger.Info().
		Int("chunks", sess.Index.Len()).
		Int("bullets", len(sess.Summary.Bullets)).
		Dur("duration", sess.LoadTime).
		Msg("session ready")
	return sess, nil
}

// Ask answers question from the session's index with the primary completer.
func (sess *Session) Ask(ctx context.Context, question string) (answer.Result, error) {
	return sess.AskTopK(ctx, question, 0)
}

// AskTopK is Ask with a per-call retrieval depth; k <= 0 uses the default.
func (sess *Session) AskTopK(ctx context.Context, question string, k int) (answer.Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return answer.Result{}, fmt.Errorf("question is empty")
	}
	return sess.svc.primary.Composer.WithTopK(k).AnswerWithSources(ctx, question, sess.Index)
}
