package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docsum/internal/chunker"
	"docsum/internal/config"
	"docsum/internal/domain"
	"docsum/internal/embedding/tfidf"
	"docsum/internal/llm/extractive"
	"docsum/internal/service"
)

const report = "Battery storage capacity doubled in 2023. Grid operators added new lithium plants across the region. " +
	"Solar output rose during the summer months. Wind generation stayed flat compared with last year. " +
	"Prices for residential power fell slightly."

const offlineConfig = `completion:
  provider: extractive
  compare_provider: %q
embedding:
  provider: tfidf
chunker:
  max_chars: 120
  overlap: 20
log:
  level: error
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func offlineConfigFile(t *testing.T, compare string) string {
	t.Helper()
	return writeFile(t, "docsum.yaml", fmt.Sprintf(offlineConfig, compare))
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	if a == nil {
		a = &app{newService: service.NewFromConfig}
	}
	cmd := newRootCommand("test", a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSummarize_Offline(t *testing.T) {
	cfg := offlineConfigFile(t, "")
	doc := writeFile(t, "report.txt", report)

	out, err := run(t, nil, "--config", cfg, "summarize", doc)
	require.NoError(t, err)

	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Key points")
	assert.Contains(t, out, "• ")
	assert.Contains(t, out, "extractive/extractive")
}

func TestSummarize_CompareNotConfigured(t *testing.T) {
	cfg := offlineConfigFile(t, "")
	doc := writeFile(t, "report.txt", report)

	_, err := run(t, nil, "--config", cfg, "summarize", "--compare", doc)
	assert.ErrorIs(t, err, service.ErrNoCompare)
}

func TestSummarize_Compare(t *testing.T) {
	cfg := offlineConfigFile(t, "extractive")
	doc := writeFile(t, "report.txt", report)

	out, err := run(t, nil, "--config", cfg, "summarize", "--compare", doc)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "== extractive (extractive) =="))
}

func TestSummarize_MissingFile(t *testing.T) {
	cfg := offlineConfigFile(t, "")

	_, err := run(t, nil, "--config", cfg, "summarize", filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestAsk_Offline(t *testing.T) {
	cfg := offlineConfigFile(t, "")
	doc := writeFile(t, "report.txt", report)

	out, err := run(t, nil, "--config", cfg, "ask", "--show-sources", "--top-k", "2", doc, "how", "much", "did", "battery", "storage", "capacity", "grow?")
	require.NoError(t, err)

	assert.Contains(t, out, "Battery storage capacity doubled in 2023.")
	assert.Contains(t, out, "Sources")
	assert.Contains(t, out, "score=")
}

func TestAsk_NeedsQuestion(t *testing.T) {
	cfg := offlineConfigFile(t, "")
	doc := writeFile(t, "report.txt", report)

	_, err := run(t, nil, "--config", cfg, "ask", doc)
	assert.Error(t, err)
}

type brokenCompleter struct{}

func (brokenCompleter) Name() string { return "broken" }

func (brokenCompleter) Complete(context.Context, domain.CompletionRequest) (domain.CompletionResponse, error) {
	return domain.CompletionResponse{}, domain.NewServiceError("broken", "complete", 503, errors.New("unavailable"))
}

func TestAsk_CompareReportsProviderError(t *testing.T) {
	cfg := offlineConfigFile(t, "")
	doc := writeFile(t, "report.txt", report)
	a := &app{newService: func(context.Context, *config.AppConfig) (*service.Service, error) {
		ch, err := chunker.NewWindowChunker(120, 20)
		if err != nil {
			return nil, err
		}
		return service.New(service.Options{
			Chunker:          ch,
			Embedder:         tfidf.New(),
			EmbeddingModel:   tfidf.ModelName,
			Completer:        extractive.New(),
			CompareCompleter: brokenCompleter{},
			CompareModel:     "broken-1",
		}), nil
	}}

	out, err := run(t, a, "--config", cfg, "ask", "--compare", doc, "which", "plants", "were", "added?")
	require.NoError(t, err)

	assert.Contains(t, out, "== extractive")
	assert.Contains(t, out, "== broken (broken-1) ==")
	assert.Contains(t, out, "error: ")
	assert.Contains(t, out, "broken complete failed (status 503): unavailable")
	assert.Contains(t, out, "lithium plants")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "docsum.toml")

	out, err := run(t, nil, "config", "init", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, err = run(t, nil, "config", "init", "--path", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, nil, "config", "init", "--path", path, "--force")
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	cfg := offlineConfigFile(t, "")

	out, err := run(t, nil, "--config", cfg, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "# "+cfg)
	assert.Contains(t, out, "provider: extractive")
	assert.Contains(t, out, "max_chars: 120")
}

func TestVerboseRaisesLogLevel(t *testing.T) {
	cfg := offlineConfigFile(t, "")
	a := &app{newService: service.NewFromConfig, cfgFile: cfg, verbose: true}

	require.NoError(t, a.loadConfig())
	assert.Equal(t, "debug", a.cfg.Log.Level)
}

func TestFormatLatency(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{150 * time.Millisecond, "150ms"},
		{0, "0ms"},
		{999 * time.Millisecond, "999ms"},
		{time.Second, "1.0s"},
		{2500 * time.Millisecond, "2.5s"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatLatency(tt.in))
		})
	}
}

func TestRenderSources_TruncatesLongChunks(t *testing.T) {
	long := strings.Repeat("word ", 100)
	out := renderSources([]domain.ScoredChunk{{Chunk: domain.Chunk{Index: 3, Text: long}, Score: 0.5}})

	assert.Contains(t, out, "#3 score=0.500")
	assert.Contains(t, out, "…")
}
