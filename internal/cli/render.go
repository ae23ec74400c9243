package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"docsum/internal/domain"
	"docsum/internal/service"
	"docsum/internal/tui"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#60A5FA"})
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"})
	sourceStyle = lipgloss.NewStyle().PaddingLeft(2)
)

const sourcePreviewRunes = 240

func renderSummary(s domain.Summary) string {
	return tui.RenderSummary(s)
}

// formatLatency prints sub-second latencies in milliseconds and the rest
// in seconds with one decimal.
func formatLatency(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func renderUsage(resp domain.CompletionResponse) string {
	return mutedStyle.Render(fmt.Sprintf("%s/%s · %s · %d in / %d out tokens",
		resp.Provider, resp.Model, formatLatency(resp.Latency), resp.InputTokens, resp.OutputTokens))
}

func renderSources(sources []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sources"))
	for _, s := range sources {
		text := strings.Join(strings.Fields(s.Chunk.Text), " ")
		if r := []rune(text); len(r) > sourcePreviewRunes {
			text = string(r[:sourcePreviewRunes]) + "…"
		}
		fmt.Fprintf(&b, "\n%s\n%s", mutedStyle.Render(fmt.Sprintf("#%d score=%.3f", s.Chunk.Index, s.Score)), sourceStyle.Render(text))
	}
	return b.String()
}

func renderOutcomes(outcomes []service.Outcome) string {
	parts := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		var b strings.Builder
		b.WriteString(titleStyle.Render(fmt.Sprintf("== %s (%s) ==", o.Provider, o.Model)))
		b.WriteString("\n")
		switch {
		case o.Err != nil:
			b.WriteString(errorStyle.Render("error: " + o.Err.Error()))
		case o.Summary.Text != "" || len(o.Summary.Bullets) > 0:
			b.WriteString(renderSummary(o.Summary))
			b.WriteString("\n")
			b.WriteString(renderUsage(o.Response))
		default:
			b.WriteString(o.Answer)
			b.WriteString("\n")
			b.WriteString(renderUsage(o.Response))
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}
