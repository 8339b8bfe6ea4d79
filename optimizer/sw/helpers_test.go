package sw

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
)

// createTestStore opens a BoltStore in a temp dir with cleanup.
func createTestStore(t *testing.T) *BoltStore {
	t.Helper()
	s, err := OpenBoltStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fakeFetcher is a counting in-memory network. URLs map to canned responses;
// URLs in failing simulate a transport failure; everything else returns 404.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]*StoredResponse
	failing   map[string]bool
	calls     map[string]int
	total     int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string]*StoredResponse),
		failing:   make(map[string]bool),
		calls:     make(map[string]int),
	}
}

func (f *fakeFetcher) serve(url string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[url] = &StoredResponse{
		Status: status,
		Header: http.Header{"Content-Type": []string{"text/plain"}},
		Body:   []byte(body),
	}
}

func (f *fakeFetcher) fail(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[url] = true
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func (f *fakeFetcher) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func (f *fakeFetcher) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
	f.total = 0
}

func (f *fakeFetcher) Fetch(_ context.Context, method, url string) (*StoredResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	f.total++
	if f.failing[url] {
		return nil, fmt.Errorf("dial tcp: connection refused")
	}
	if resp, ok := f.responses[url]; ok {
		return resp.Clone(), nil
	}
	return &StoredResponse{Status: http.StatusNotFound, Header: http.Header{}}, nil
}

// serveManifest registers 200 responses for every manifest entry.
func (f *fakeFetcher) serveManifest(m Manifest) {
	for _, url := range m {
		f.serve(url, http.StatusOK, "content of "+url)
	}
}
