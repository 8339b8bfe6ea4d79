// Package run orchestrates one optimization pass over a built site tree.
package run

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"siteforge/optimizer/config"
	"siteforge/optimizer/generators"
	"siteforge/optimizer/metrics"
	"siteforge/optimizer/minify"
	"siteforge/optimizer/sw"
	"siteforge/optimizer/utils"
)

// Optimizer runs the post-build steps: minification, PWA artifacts, cache
// headers, and an offline-install verification of the generated manifest.
type Optimizer struct {
	cfg      *config.Config
	buildCfg *config.BuildConfig
	fs       afero.Fs
	logger   *slog.Logger
	metrics  *metrics.RunMetrics
}

func New(cfg *config.Config, buildCfg *config.BuildConfig, fsys afero.Fs, logger *slog.Logger) *Optimizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{
		cfg:      cfg,
		buildCfg: buildCfg,
		fs:       fsys,
		logger:   logger,
		metrics:  metrics.NewRunMetrics(),
	}
}

// Metrics exposes the run report.
func (o *Optimizer) Metrics() *metrics.RunMetrics {
	return o.metrics
}

// Run executes the full pass. Steps are ordered so the service worker
// manifest is assembled against the final, minified tree.
func (o *Optimizer) Run(ctx context.Context) error {
	if exists, _ := afero.DirExists(o.fs, o.cfg.SiteDir); !exists {
		return fmt.Errorf("site directory %s does not exist (build the site first)", o.cfg.SiteDir)
	}

	fmt.Printf("🔧 Optimizing %s...\n", o.cfg.SiteDir)

	start := time.Now()
	h := minify.NewHTMLMinifier(o.buildCfg.MaxFileSize, o.logger)
	if err := h.MinifyTree(ctx, o.fs, o.cfg.SiteDir, o.buildCfg.HTMLWorkers, o.metrics); err != nil {
		return fmt.Errorf("html minification failed: %w", err)
	}
	o.metrics.MinifyTime = time.Since(start)

	start = time.Now()
	if err := minify.MinifyAssets(o.fs, o.cfg.SiteDir, o.metrics); err != nil {
		return fmt.Errorf("asset minification failed: %w", err)
	}
	o.metrics.AssetTime = time.Since(start)

	if o.cfg.CompressImages {
		if err := minify.EncodeImagesWebP(ctx, o.fs, o.cfg.SiteDir, o.buildCfg.WebPQuality, o.buildCfg.ImageWorkers, o.metrics, o.logger); err != nil {
			return fmt.Errorf("image encoding failed: %w", err)
		}
	}

	start = time.Now()
	if err := o.generatePWA(); err != nil {
		return err
	}
	if err := generators.GenerateHtaccess(o.fs, o.cfg.SiteDir, nil, o.cfg.ForceRebuild); err != nil {
		return fmt.Errorf("htaccess generation failed: %w", err)
	}
	o.metrics.GenerateTime = time.Since(start)

	if !o.cfg.IsDev {
		if err := o.verifyOffline(ctx); err != nil {
			return fmt.Errorf("offline verification failed: %w", err)
		}
		if o.cfg.VerifyOrigin != "" {
			if err := o.verifyOrigin(ctx); err != nil {
				return fmt.Errorf("origin verification failed: %w", err)
			}
		}
	}

	o.metrics.RecordEnd()
	o.metrics.Print()
	return nil
}

// buildManifest assembles the pre-cache list: the app shell, plus anything
// the site opted into via the precache config key. Entries are only included
// when they exist in the tree, except "/" which always resolves to
// index.html.
func (o *Optimizer) buildManifest() sw.Manifest {
	manifest := sw.Manifest{"/"}

	for _, candidate := range []string{"/index.html", "/404.html", "/manifest.json"} {
		if exists, _ := afero.Exists(o.fs, filepath.Join(o.cfg.SiteDir, candidate)); exists {
			manifest = append(manifest, candidate)
		}
	}
	for _, extra := range o.buildCfg.Precache {
		manifest = append(manifest, utils.URLPath(extra))
	}

	return manifest.Deduped()
}

func (o *Optimizer) generatePWA() error {
	if o.cfg.IsDev {
		return nil
	}

	// Icons and manifest.json first so buildManifest sees manifest.json.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := generators.GenerateWebManifest(o.fs, o.cfg.SiteDir, o.buildCfg.SiteName, o.buildCfg.SiteDescription, o.cfg.ForceRebuild); err != nil {
			o.logger.Warn("failed to generate web manifest", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		faviconPath := filepath.Join(o.cfg.SiteDir, "static", "images", "favicon.png")
		if exists, _ := afero.Exists(o.fs, faviconPath); !exists {
			return
		}
		destDir := filepath.Join(o.cfg.SiteDir, "static", "images")
		if err := generators.GeneratePWAIcons(o.fs, o.fs, faviconPath, destDir); err != nil {
			o.logger.Warn("failed to generate PWA icons", "error", err)
		}
	}()
	wg.Wait()

	tag := fmt.Sprintf("site-v%d", o.cfg.BuildVersion)
	manifest := o.buildManifest()
	if err := generators.GenerateSW(o.fs, o.cfg.SiteDir, tag, o.cfg.BaseURL, manifest, o.cfg.ForceRebuild); err != nil {
		return fmt.Errorf("service worker generation failed: %w", err)
	}
	return nil
}

// verifyOffline installs the generated manifest against the output tree
// through the real worker lifecycle. An install that fails here would fail
// in every browser, so it fails the run.
func (o *Optimizer) verifyOffline(ctx context.Context) error {
	hits, err := o.verifyManifest(ctx, "offline", sw.NewFSFetcher(o.fs, o.cfg.SiteDir))
	if err != nil {
		return err
	}
	fmt.Printf("   ✅ Offline manifest verified (%d assets cached)\n", hits)
	return nil
}

// verifyOrigin replays the same install against a live origin over HTTP, so
// a deployed site can be checked end to end with `-verify-origin`.
func (o *Optimizer) verifyOrigin(ctx context.Context) error {
	client := &http.Client{Timeout: o.buildCfg.FetchTimeout}
	hits, err := o.verifyManifest(ctx, "origin", sw.NewHTTPFetcher(client, o.cfg.VerifyOrigin))
	if err != nil {
		return err
	}
	fmt.Printf("   🌍 Origin manifest verified (%d assets cached)\n", hits)
	return nil
}

// verifyManifest runs the register/install/activate cycle against the given
// fetcher, then counts store hits per manifest entry into the run metrics.
func (o *Optimizer) verifyManifest(ctx context.Context, storeName string, fetcher sw.Fetcher) (int, error) {
	script, err := afero.ReadFile(o.fs, filepath.Join(o.cfg.SiteDir, "sw.js"))
	if err != nil {
		return 0, fmt.Errorf("failed to read generated sw.js: %w", err)
	}

	store, err := sw.OpenBoltStore(
		filepath.Join(o.cfg.CacheDir, storeName),
		sw.WithStoreTimeout(o.buildCfg.StoreTimeout),
	)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	registry := sw.NewRegistry(store, fetcher, o.logger)
	manifest := o.buildManifest()
	if _, err := registry.Register(ctx, script, manifest); err != nil {
		return 0, err
	}
	if err := registry.ActivateWaiting(ctx); err != nil {
		return 0, err
	}

	tag := registry.Current().Tag()
	hits := 0
	for _, u := range manifest {
		if _, ok, err := store.Get(tag, sw.RequestKey(http.MethodGet, u)); err == nil && ok {
			o.metrics.RecordCacheHit()
			hits++
			continue
		}
		o.metrics.RecordCacheMiss()
	}
	return hits, nil
}
