// Package serve provides a local preview server for the optimized site. It
// applies the same cache headers the generated .htaccess declares, so what
// you preview is what Apache will serve.
package serve

import (
	"compress/gzip"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"siteforge/optimizer/config"
)

// cacheControlFor mirrors the .htaccess policy per extension.
func cacheControlFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", "":
		return "no-cache"
	case ".css", ".js":
		return "public, max-age=31536000, immutable"
	case ".png", ".jpg", ".jpeg", ".webp", ".svg", ".ico",
		".woff", ".woff2", ".ttf":
		return "public, max-age=2592000"
	default:
		return "no-cache"
	}
}

type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func gzipHandler(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next(w, r)
			return
		}
		ext := strings.ToLower(filepath.Ext(r.URL.Path))
		switch ext {
		case ".html", ".css", ".js", ".json", ".svg", "":
		default:
			next(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer func() { _ = gz.Close() }()
		next(&gzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
	}
}

// newHandler serves the site tree with the preview cache policy. sw.js gets
// the Service-Worker-Allowed header so the worker can claim the whole
// origin even when served from a subpath.
func newHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))

	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sw.js":
			w.Header().Set("Content-Type", "application/javascript")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Service-Worker-Allowed", "/")
		case "/manifest.json":
			w.Header().Set("Content-Type", "application/manifest+json")
			w.Header().Set("Cache-Control", "public, max-age=3600")
		default:
			if ct := mime.TypeByExtension(filepath.Ext(r.URL.Path)); ct != "" {
				w.Header().Set("Content-Type", ct)
			}
			w.Header().Set("Cache-Control", cacheControlFor(r.URL.Path))
		}
		fileServer.ServeHTTP(w, r)
	}
}

// Run starts the preview server and blocks until ctx is cancelled. Shutdown
// and watcher debounce timing come from siteforge.build.yaml.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", "localhost", "The host/IP to bind to")
	port := fs.String("port", "2604", "The port to listen on")
	dir := fs.String("dir", "public", "The optimized site directory to serve")
	_ = fs.Parse(args)

	buildCfg := config.LoadBuildConfig()
	logger := slog.Default()

	if _, err := os.Stat(*dir); err != nil {
		return fmt.Errorf("cannot serve %s: %w", *dir, err)
	}

	stopWatcher, err := startWatcher(*dir, buildCfg.DebounceDuration, logger)
	if err != nil {
		logger.Warn("file watcher disabled", "error", err)
	} else {
		defer stopWatcher()
	}

	addr := fmt.Sprintf("%s:%s", *host, *port)
	srv := &http.Server{
		Addr:    addr,
		Handler: gzipHandler(newHandler(*dir)),
	}

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("🌐 Serving %s on http://%s\n", *dir, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), buildCfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
