package serve

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func createSiteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":          "<html>home</html>",
		"sw.js":               "// worker",
		"manifest.json":       "{}",
		"static/css/main.css": "body{color:red}",
	}
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return dir
}

func TestHandler_ServiceWorkerHeaders(t *testing.T) {
	handler := newHandler(createSiteDir(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/sw.js", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /sw.js = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Service-Worker-Allowed"); got != "/" {
		t.Errorf("Service-Worker-Allowed = %q, want /", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("sw.js Cache-Control = %q, want no-cache", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/javascript" {
		t.Errorf("sw.js Content-Type = %q", got)
	}
}

func TestHandler_ManifestHeaders(t *testing.T) {
	handler := newHandler(createSiteDir(t))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))

	if got := rec.Header().Get("Content-Type"); got != "application/manifest+json" {
		t.Errorf("manifest.json Content-Type = %q", got)
	}
}

func TestHandler_CachePolicyMatchesHtaccess(t *testing.T) {
	handler := newHandler(createSiteDir(t))

	tests := []struct {
		path string
		want string
	}{
		{"/index.html", "no-cache"},
		{"/static/css/main.css", "public, max-age=31536000, immutable"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if got := rec.Header().Get("Cache-Control"); got != tt.want {
			t.Errorf("%s Cache-Control = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestGzipHandler(t *testing.T) {
	handler := gzipHandler(newHandler(createSiteDir(t)))

	req := httptest.NewRequest(http.MethodGet, "/static/css/main.css", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}

	// Clients without gzip support get identity encoding.
	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/static/css/main.css", nil))
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("Content-Encoding without Accept-Encoding = %q, want empty", got)
	}
}

func TestCacheControlFor(t *testing.T) {
	if got := cacheControlFor("/posts/"); got != "no-cache" {
		t.Errorf("Directory path Cache-Control = %q, want no-cache", got)
	}
	if got := cacheControlFor("/a.webp"); got != "public, max-age=2592000" {
		t.Errorf("webp Cache-Control = %q", got)
	}
}
