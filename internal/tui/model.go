package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docsum/internal/answer"
	"docsum/internal/domain"
	"docsum/internal/textutil"
)

// Asker answers questions about the loaded document.
type Asker interface {
	AskTopK(ctx context.Context, question string, k int) (answer.Result, error)
}

// Document is what the chat screen needs from a loaded session.
type Document struct {
	Title   string
	Summary domain.Summary
	Asker   Asker
}

// Loader extracts, summarizes and indexes the document.
type Loader func(ctx context.Context) (Document, error)

type loadedMsg struct {
	doc Document
	err error
}

type answerMsg struct {
	question string
	result   answer.Result
	err      error
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx      context.Context
	load     Loader
	topK     int
	doc      Document
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	loading   bool
	asking    bool
	ready     bool
	status    string
	result    *answer.Result
	lastQuery string
	cursor    int
}

// New creates the chat model. Loading starts on Init.
func New(ctx context.Context, title string, load Loader, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctx:      ctx,
		load:     load,
		topK:     topK,
		doc:      Document{Title: title},
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		loading:  true,
		status:   "Reading and summarizing...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		doc, err := load(ctx)
		return loadedMsg{doc: doc, err: err}
	}
}

func (m Model) askCmd(q string) tea.Cmd {
	ctx, asker, k := m.ctx, m.doc.Asker, m.topK
	return func() tea.Msg {
		res, err := asker.AskTopK(ctx, q, k)
		return answerMsg{question: q, result: res, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := bodyBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 + 1 // header, spacer, query box, input, status
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		title := m.doc.Title
		m.doc = msg.doc
		if m.doc.Title == "" {
			m.doc.Title = title
		}
		m.status = fmt.Sprintf("Ready. %d key points. Ask away.", len(m.doc.Summary.Bullets))
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case answerMsg:
		m.asking = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		res := msg.result
		m.result = &res
		m.lastQuery = msg.question
		m.cursor = 0
		m.status = fmt.Sprintf("Answered from %d chunks in %s", len(res.Sources), res.Response.Latency.Round(time.Millisecond))
		m.viewport.SetContent(m.renderBody())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.asking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.loading || m.asking || m.doc.Asker == nil {
				return m, nil
			}
			m.asking = true
			m.status = fmt.Sprintf("Answering %q...", q)
			m.input.SetValue("")
			return m, tea.Batch(m.spinner.Tick, m.askCmd(q))
		case "ctrl+s":
			m.result = nil
			m.viewport.SetContent(m.renderBody())
			return m, nil
		case "down":
			if m.result != nil && len(m.result.Sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.result.Sources)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "up":
			if m.result != nil && len(m.result.Sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.result.Sources)) % len(m.result.Sources)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("docsum · " + m.doc.Title)
	body := bodyBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.loading || m.asking {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + body + "\n" + input + "\n" + statusStyle.Render(status) + "\n" + helpStyle.Render("enter ask · ↑/↓ sources · ctrl+s summary · esc quit")
}

func (m Model) renderBody() string {
	if m.loading {
		return "Working on the document..."
	}
	if m.result == nil {
		return RenderSummary(m.doc.Summary)
	}
	var b strings.Builder
	b.WriteString(labelStyle.Render("Q: "))
	b.WriteString(m.lastQuery)
	b.WriteString("\n\n")
	b.WriteString(labelStyle.Render("A: "))
	b.WriteString(m.result.Answer)
	if n := len(m.result.Sources); n > 0 {
		src := m.result.Sources[m.cursor]
		fmt.Fprintf(&b, "\n\n%s\n\n", dimStyle.Render(fmt.Sprintf("Source %d/%d  chunk #%d  score=%.3f", m.cursor+1, n, src.Chunk.Index, src.Score)))
		b.WriteString(highlightBestSentence(src.Chunk.Text, m.lastQuery))
	}
	return b.String()
}

// RenderSummary formats a summary paragraph and its bullets.
func RenderSummary(s domain.Summary) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render("Summary"))
	b.WriteString("\n")
	b.WriteString(s.Text)
	if len(s.Bullets) > 0 {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Key points"))
		for _, bl := range s.Bullets {
			b.WriteString("\n• ")
			b.WriteString(bl)
		}
	}
	return b.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	bodyBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasises the chunk sentence sharing the most
// words with the query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestScore > 0 {
		sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	}
	return strings.Join(sentences, " ")
}

func tokenSet(s string) map[string]struct{} {
	words := textutil.Words(s)
	m := make(map[string]struct{}, len(words))
	for _, t := range words {
		m[t] = struct{}{}
	}
	return m
}

func overlap(query map[string]struct{}, sentence string) int {
	score := 0
	for t := range tokenSet(sentence) {
		if _, ok := query[t]; ok {
			score++
		}
	}
	return score
}
