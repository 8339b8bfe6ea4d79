// Package minify wraps the third-party minifiers used on the built site
// tree: tdewolff for HTML, esbuild for CSS/JS, WebP for images.
package minify

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"

	"siteforge/optimizer/metrics"
	"siteforge/optimizer/utils"
)

// HTMLMinifier minifies HTML (with embedded CSS and SVG) in place across a
// site tree.
type HTMLMinifier struct {
	m           *minify.M
	bufPool     *utils.BufferPool
	maxFileSize int
	logger      *slog.Logger
}

func NewHTMLMinifier(maxFileSize int, logger *slog.Logger) *HTMLMinifier {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return &HTMLMinifier{
		m:           m,
		bufPool:     utils.NewBufferPool(),
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// MinifyBytes minifies one HTML document.
func (h *HTMLMinifier) MinifyBytes(input []byte) ([]byte, error) {
	buf := h.bufPool.Get()
	defer h.bufPool.Put(buf)

	if err := h.m.Minify("text/html", buf, bytes.NewReader(input)); err != nil {
		return nil, fmt.Errorf("html minify: %w", err)
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

// MinifyTree walks dir and minifies every .html file in place, recording
// before/after sizes. Files that fail to minify are left untouched and
// logged; one broken page does not fail the run.
func (h *HTMLMinifier) MinifyTree(ctx context.Context, fsys afero.Fs, dir string, workers int, m *metrics.RunMetrics) error {
	var paths []string
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.ToLower(filepath.Ext(path)) != ".html" {
			return nil
		}
		if h.maxFileSize > 0 && info.Size() > int64(h.maxFileSize) {
			h.logger.Warn("skipping oversized html file", "path", path, "size", info.Size())
			m.RecordSkip()
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	var mu sync.Mutex
	var firstErr error

	pool := utils.NewWorkerPool(ctx, workers, func(path string) {
		input, err := afero.ReadFile(fsys, path)
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to read %s: %w", path, err)
			}
			mu.Unlock()
			return
		}

		output, err := h.MinifyBytes(input)
		if err != nil {
			h.logger.Warn("failed to minify, leaving as-is", "path", path, "error", err)
			m.RecordSkip()
			return
		}
		if len(output) >= len(input) {
			m.RecordSkip()
			return
		}

		if err := afero.WriteFile(fsys, path, output, 0644); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to write %s: %w", path, err)
			}
			mu.Unlock()
			return
		}
		m.RecordHTML(len(input), len(output))
	})

	pool.Start()
	for _, p := range paths {
		pool.Submit(p)
	}
	pool.Stop()

	return firstErr
}
