package minify

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"siteforge/optimizer/metrics"
)

// MinifyAssets runs esbuild over every .css and .js file under dir,
// minifying each in place. Entry points are read from the real filesystem
// (esbuild resolves imports itself); outputs are written through destFs so
// tests can capture them.
func MinifyAssets(destFs afero.Fs, dir string, m *metrics.RunMetrics) error {
	fmt.Println("🎨 Minifying assets with esbuild...")

	var cssEntryPoints []string
	var jsEntryPoints []string
	sizes := make(map[string]int)

	err := afero.Walk(destFs, dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".css":
			cssEntryPoints = append(cssEntryPoints, path)
			sizes[filepath.ToSlash(path)] = int(info.Size())
		case ".js":
			jsEntryPoints = append(jsEntryPoints, path)
			sizes[filepath.ToSlash(path)] = int(info.Size())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan for assets: %w", err)
	}

	process := func(entryPoints []string) error {
		if len(entryPoints) == 0 {
			return nil
		}
		result := api.Build(api.BuildOptions{
			EntryPoints:       entryPoints,
			Bundle:            false,
			Write:             false,
			Outdir:            dir,
			Outbase:           dir,
			MinifyWhitespace:  true,
			MinifyIdentifiers: true,
			MinifySyntax:      true,
			Loader: map[string]api.Loader{
				".css": api.LoaderCSS,
				".js":  api.LoaderJS,
			},
		})
		if len(result.Errors) > 0 {
			return fmt.Errorf("esbuild failed with %d errors: %s", len(result.Errors), result.Errors[0].Text)
		}

		for _, outFile := range result.OutputFiles {
			path := filepath.ToSlash(outFile.Path)
			// esbuild reports absolute paths; map back under dir.
			if idx := strings.Index(path, filepath.ToSlash(dir)+"/"); idx >= 0 {
				path = path[idx:]
			}
			if err := destFs.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := afero.WriteFile(destFs, path, outFile.Contents, 0644); err != nil {
				return err
			}
			if before, ok := sizes[path]; ok {
				m.RecordAsset(before, len(outFile.Contents))
			}
		}
		return nil
	}

	if err := process(cssEntryPoints); err != nil {
		return err
	}
	return process(jsEntryPoints)
}
