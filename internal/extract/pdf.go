package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/phuslu/log"

	"docsum/internal/domain"
)

var (
	disableConfigDir sync.Once
	pageFilePattern  = regexp.MustCompile(`_Content_page_(\d+)`)
)

// PDF extracts text with pdfcpu by dumping each page's content stream and
// decoding its text-showing operators.
type PDF struct {
	conf *model.Configuration
}

var _ domain.TextExtractor = (*PDF)(nil)

func NewPDF() *PDF {
	disableConfigDir.Do(api.DisableConfigDir)
	return &PDF{conf: model.NewDefaultConfiguration()}
}

// Extract returns the text of every non-empty page, pages separated by a
// blank line.
func (p *PDF) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("read pdf %s: %w", path, err)
	}

	outDir, err := os.MkdirTemp("", "docsum-pdf-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(path, outDir, nil, p.conf); err != nil {
		return "", fmt.Errorf("extract pdf content: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pages, err := readPages(outDir)
	if err != nil {
		return "", err
	}
	var texts []string
	for _, n := range sortedKeys(pages) {
		if t := strings.TrimSpace(ContentText(pages[n])); t != "" {
			texts = append(texts, t)
		}
	}
	log.Debug().
		Str("file", filepath.Base(path)).
		Int("pages", pdfCtx.PageCount).
		Int("text_pages", len(texts)).
		Msg("pdf extracted")

	if len(texts) == 0 {
		return "", domain.ErrExtractionEmpty
	}
	return strings.Join(texts, "\n\n"), nil
}

func readPages(dir string) (map[int][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	pages := make(map[int][]byte, len(entries))
	for _, e := range entries {
		m := pageFilePattern.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		pages[n] = data
	}
	return pages, nil
}

func sortedKeys(m map[int][]byte) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
