package sw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func createOriginServer(t *testing.T, assets map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := assets[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPFetcher(t *testing.T) {
	srv := createOriginServer(t, map[string]string{
		"/":           "home",
		"/index.html": "index",
	})
	f := NewHTTPFetcher(srv.Client(), srv.URL)
	ctx := context.Background()

	resp, err := f.Fetch(ctx, http.MethodGet, "/index.html")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}
	if resp.Status != http.StatusOK || string(resp.Body) != "index" {
		t.Errorf("Fetch(/index.html) = %d %q, want 200 index", resp.Status, resp.Body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/plain" {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}

	missing, err := f.Fetch(ctx, http.MethodGet, "/nope.css")
	if err != nil {
		t.Fatalf("Fetch(missing) failed: %v", err)
	}
	if missing.Status != http.StatusNotFound {
		t.Errorf("Fetch(missing) status = %d, want 404", missing.Status)
	}

	// Absolute URLs bypass base-URL resolution.
	abs, err := f.Fetch(ctx, http.MethodGet, srv.URL+"/")
	if err != nil {
		t.Fatalf("Fetch(absolute) failed: %v", err)
	}
	if string(abs.Body) != "home" {
		t.Errorf("Fetch(absolute) body = %q, want home", abs.Body)
	}
}

func TestHTTPFetcher_TransportFailure(t *testing.T) {
	srv := createOriginServer(t, nil)
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(nil, url)
	if _, err := f.Fetch(context.Background(), http.MethodGet, "/"); err == nil {
		t.Error("Fetch() against a closed origin should fail")
	}
}

func TestHTTPFetcher_DrivesInstall(t *testing.T) {
	manifest := Manifest{"/", "/index.html", "/a.png"}
	srv := createOriginServer(t, map[string]string{
		"/":           "home",
		"/index.html": "index",
		"/a.png":      "png",
	})

	s := createTestStore(t)
	w, err := New("v1", manifest, s, NewHTTPFetcher(srv.Client(), srv.URL))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := w.Install(context.Background()); err != nil {
		t.Fatalf("Install() over HTTP failed: %v", err)
	}

	keys, err := s.Keys("v1")
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	if len(keys) != len(manifest) {
		t.Errorf("Stored %d keys, want %d", len(keys), len(manifest))
	}

	// An origin missing a manifest asset fails the whole install.
	w2, _ := New("v2", Manifest{"/", "/missing.css"}, s, NewHTTPFetcher(srv.Client(), srv.URL))
	if err := w2.Install(context.Background()); err == nil {
		t.Error("Install() should fail when the origin lacks a manifest asset")
	}
}
