// Package generators emits the deploy artifacts of the optimization run:
// the service worker, the web app manifest, PWA icons and the .htaccess
// cache policy.
package generators

import (
	"fmt"
	"path/filepath"
	"text/template"

	"github.com/spf13/afero"

	"siteforge/optimizer/sw"
)

// swTemplate is the emitted service worker. It implements exactly the
// semantics of the sw package: all-or-nothing install of the manifest,
// cache-first lookup for GETs, plain network passthrough on miss with no
// runtime cache population, and purge of stale caches on activate. No
// skipWaiting: updates wait for the old generation to release its pages.
const swTemplate = `const CACHE_NAME = '{{ .Tag }}';

// Assets pre-cached at install time
const CORE_ASSETS = [
{{- range .Assets }}
    '{{ . }}',
{{- end }}
];

// Install: cache every core asset, or fail the whole install
self.addEventListener('install', (event) => {
    event.waitUntil(
        caches.open(CACHE_NAME)
            .then((cache) => cache.addAll(CORE_ASSETS))
    );
});

// Activate: drop caches from older generations
self.addEventListener('activate', (event) => {
    event.waitUntil(
        caches.keys().then((cacheNames) => {
            return Promise.all(
                cacheNames.map((cache) => {
                    if (cache !== CACHE_NAME) {
                        return caches.delete(cache);
                    }
                })
            );
        })
    );
});

// Fetch: cache first, network on miss, nothing stored at runtime
self.addEventListener('fetch', (event) => {
    const { request } = event;

    if (request.method !== 'GET') {
        event.respondWith(fetch(request));
        return;
    }

    event.respondWith(
        caches.match(request).then((cached) => cached || fetch(request))
    );
});
`

// GenerateSW writes sw.js into destDir, embedding the generation tag and the
// BaseURL-prefixed manifest. Skipped when the file already exists and force
// is off (smart build).
func GenerateSW(destFs afero.Fs, destDir string, tag string, baseURL string, manifest sw.Manifest, force bool) error {
	swPath := filepath.Join(destDir, "sw.js")

	if !force {
		if exists, _ := afero.Exists(destFs, swPath); exists {
			return nil
		}
	}

	if err := manifest.Validate(); err != nil {
		return fmt.Errorf("cannot generate sw.js: %w", err)
	}

	fmt.Println("   📱 Generating Service Worker...")

	assets := make([]string, 0, len(manifest))
	for _, u := range manifest.Deduped() {
		assets = append(assets, baseURL+u)
	}

	tmpl, err := template.New("sw").Parse(swTemplate)
	if err != nil {
		return err
	}

	f, err := destFs.Create(swPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data := struct {
		Tag    string
		Assets []string
	}{
		Tag:    tag,
		Assets: assets,
	}

	return tmpl.Execute(f, data)
}
