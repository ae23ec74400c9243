// Package extract turns a document on disk into plain text.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"docsum/internal/domain"
)

// Plain reads UTF-8 text and markdown files as is.
type Plain struct{}

var _ domain.TextExtractor = Plain{}

func (Plain) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	text := strings.ToValidUTF8(string(data), "")
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrExtractionEmpty
	}
	return text, nil
}

// ForPath picks an extractor by file extension.
func ForPath(path string) (domain.TextExtractor, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return NewPDF(), nil
	case ".txt", ".md", ".markdown":
		return Plain{}, nil
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// CheckSize rejects files larger than maxMB megabytes before any parsing.
func CheckSize(path string, maxMB int) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if maxMB > 0 && info.Size() > int64(maxMB)<<20 {
		return fmt.Errorf("%s is %.1f MB, limit is %d MB", path, float64(info.Size())/(1<<20), maxMB)
	}
	return nil
}
