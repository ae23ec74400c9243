package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/answer"
	"docsum/internal/domain"
)

type stubAsker struct {
	questions []string
	k         int
	result    answer.Result
	err       error
}

func (s *stubAsker) AskTopK(_ context.Context, q string, k int) (answer.Result, error) {
	s.questions = append(s.questions, q)
	s.k = k
	return s.result, s.err
}

func loadedModel(t *testing.T, asker *stubAsker) Model {
	t.Helper()
	doc := Document{
		Title: "report.pdf",
		Summary: domain.Summary{
			Text:    "The report covers battery storage.",
			Bullets: []string{"Costs fell", "Capacity doubled"},
		},
		Asker: asker,
	}
	m := New(context.Background(), "report.pdf", func(context.Context) (Document, error) { return doc, nil }, 3)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	updated, _ = updated.Update(loadedMsg{doc: doc})
	return updated.(Model)
}

func TestNew(t *testing.T) {
	m := New(context.Background(), "a.pdf", nil, 5)
	assert.True(t, m.loading)
	assert.Equal(t, "Loading...", m.View())
	assert.NotNil(t, m.Init())
}

func TestModel_LoadCmdReturnsDocument(t *testing.T) {
	want := Document{Title: "x.pdf", Summary: domain.Summary{Text: "s"}}
	m := New(context.Background(), "x.pdf", func(context.Context) (Document, error) { return want, nil }, 5)

	msg := m.loadCmd()()
	loaded, ok := msg.(loadedMsg)
	require.True(t, ok)
	assert.Equal(t, want, loaded.doc)
}

func TestModel_LoadedShowsSummary(t *testing.T) {
	m := loadedModel(t, &stubAsker{})

	assert.False(t, m.loading)
	view := m.View()
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "battery storage")
	assert.Contains(t, view, "Capacity doubled")
	assert.Contains(t, m.status, "2 key points")
}

func TestModel_LoadError(t *testing.T) {
	m := New(context.Background(), "a.pdf", nil, 5)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	updated, _ = updated.Update(loadedMsg{err: errors.New("no extractable text")})

	got := updated.(Model)
	assert.Contains(t, got.status, "no extractable text")
	assert.Nil(t, got.doc.Asker)
}

func TestModel_EnterAsksQuestion(t *testing.T) {
	asker := &stubAsker{result: answer.Result{Answer: "It doubled."}}
	m := loadedModel(t, asker)
	m.input.SetValue("  what happened to capacity?  ")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)
	require.NotNil(t, cmd)
	assert.True(t, got.asking)
	assert.Empty(t, got.input.Value())

	msg := got.askCmd("what happened to capacity?")()
	res, ok := msg.(answerMsg)
	require.True(t, ok)
	assert.Equal(t, "It doubled.", res.result.Answer)
	assert.Equal(t, []string{"what happened to capacity?"}, asker.questions)
	assert.Equal(t, 3, asker.k)
}

func TestModel_EnterIgnoredWhenEmptyOrBusy(t *testing.T) {
	m := loadedModel(t, &stubAsker{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, updated.(Model).asking)

	m.asking = true
	m.input.SetValue("question")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_AnswerAndCycleSources(t *testing.T) {
	m := loadedModel(t, &stubAsker{})
	res := answer.Result{
		Answer: "Capacity doubled.",
		Sources: []domain.ScoredChunk{
			{Chunk: domain.Chunk{Index: 4, Text: "Capacity doubled in 2023. Prices were flat."}, Score: 0.91},
			{Chunk: domain.Chunk{Index: 1, Text: "Costs fell sharply."}, Score: 0.42},
		},
	}

	updated, _ := m.Update(answerMsg{question: "capacity", result: res})
	got := updated.(Model)
	require.NotNil(t, got.result)
	assert.Equal(t, 0, got.cursor)
	assert.Contains(t, got.renderBody(), "Source 1/2")
	assert.Contains(t, got.renderBody(), "chunk #4")

	updated, _ = got.Update(tea.KeyMsg{Type: tea.KeyDown})
	got = updated.(Model)
	assert.Equal(t, 1, got.cursor)
	assert.Contains(t, got.renderBody(), "chunk #1")

	updated, _ = got.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, updated.(Model).cursor)

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, updated.(Model).cursor)
}

func TestModel_AnswerError(t *testing.T) {
	m := loadedModel(t, &stubAsker{})
	m.asking = true

	updated, _ := m.Update(answerMsg{question: "q", err: errors.New("service down")})
	got := updated.(Model)
	assert.False(t, got.asking)
	assert.Nil(t, got.result)
	assert.Contains(t, got.status, "service down")
}

func TestModel_CtrlSReturnsToSummary(t *testing.T) {
	m := loadedModel(t, &stubAsker{})
	updated, _ := m.Update(answerMsg{question: "q", result: answer.Result{Answer: "a"}})

	updated, _ = updated.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	got := updated.(Model)
	assert.Nil(t, got.result)
	assert.Contains(t, got.renderBody(), "battery storage")
}

func TestModel_Quit(t *testing.T) {
	m := loadedModel(t, &stubAsker{})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary(domain.Summary{Text: "Para.", Bullets: []string{"one", "two"}})
	assert.Contains(t, out, "Para.")
	assert.Equal(t, 2, strings.Count(out, "• "))

	out = RenderSummary(domain.Summary{Text: "Only a paragraph."})
	assert.NotContains(t, out, "Key points")
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Solar output rose. Battery capacity doubled last year. Wind was flat."

	out := highlightBestSentence(text, "how did battery capacity change?")
	assert.Contains(t, out, "Solar output rose.")
	assert.Contains(t, out, "Battery capacity doubled last year.")

	assert.Equal(t, "  ", highlightBestSentence("  ", "q"))
	assert.Equal(t, "Solar output rose. Battery capacity doubled last year. Wind was flat.",
		highlightBestSentence(text, "the"))
}
