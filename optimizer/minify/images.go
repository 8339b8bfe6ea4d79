package minify

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/spf13/afero"

	"siteforge/optimizer/metrics"
	"siteforge/optimizer/utils"
)

// EncodeImagesWebP walks dir and writes a lossy .webp sibling next to every
// .png/.jpg/.jpeg file. Originals are kept: HTML references are not
// rewritten, so the site must stay self-consistent without them.
func EncodeImagesWebP(ctx context.Context, fsys afero.Fs, dir string, quality float32, workers int, m *metrics.RunMetrics, logger *slog.Logger) error {
	var paths []string
	err := afero.Walk(fsys, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan images in %s: %w", dir, err)
	}

	pool := utils.NewWorkerPool(ctx, workers, func(path string) {
		target := path[:len(path)-len(filepath.Ext(path))] + ".webp"
		if exists, _ := afero.Exists(fsys, target); exists {
			m.RecordSkip()
			return
		}

		in, err := fsys.Open(path)
		if err != nil {
			logger.Warn("failed to open image", "path", path, "error", err)
			return
		}
		img, err := imaging.Decode(in)
		_ = in.Close()
		if err != nil {
			logger.Warn("failed to decode image", "path", path, "error", err)
			return
		}

		out, err := fsys.Create(target)
		if err != nil {
			logger.Warn("failed to create webp file", "path", target, "error", err)
			return
		}
		err = webp.Encode(out, img, &webp.Options{Lossless: false, Quality: quality})
		if cerr := out.Close(); cerr != nil {
			logger.Warn("failed to close webp file", "path", target, "error", cerr)
		}
		if err != nil {
			logger.Warn("failed to encode webp", "path", target, "error", err)
			_ = fsys.Remove(target)
			return
		}
		m.RecordImage()
	})

	pool.Start()
	for _, p := range paths {
		pool.Submit(p)
	}
	pool.Stop()
	return nil
}
