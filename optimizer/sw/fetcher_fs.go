package sw

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FSFetcher serves requests from a built site tree instead of the network.
// The optimization pipeline uses it to install the generated manifest
// against the output directory before deploy: if the install fails there, it
// would fail in every browser too.
type FSFetcher struct {
	Fs   afero.Fs
	Root string
}

func NewFSFetcher(fsys afero.Fs, root string) *FSFetcher {
	return &FSFetcher{Fs: fsys, Root: root}
}

// Fetch maps a request path onto the tree ("/" and directory paths resolve
// to index.html) and replies like a plain static file server: 200 with the
// file bytes, 404 when absent, 405 for non-GET.
func (f *FSFetcher) Fetch(_ context.Context, method, url string) (*StoredResponse, error) {
	if method != http.MethodGet {
		return &StoredResponse{Status: http.StatusMethodNotAllowed, Header: http.Header{}}, nil
	}
	// Never resolve outside the served tree.
	if strings.Contains(url, "..") {
		return &StoredResponse{Status: http.StatusNotFound, Header: http.Header{}}, nil
	}

	rel := strings.TrimPrefix(url, "/")
	if rel == "" || strings.HasSuffix(url, "/") {
		rel = filepath.Join(rel, "index.html")
	}
	path := filepath.Join(f.Root, rel)

	exists, err := afero.Exists(f.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !exists {
		return &StoredResponse{Status: http.StatusNotFound, Header: http.Header{}}, nil
	}

	body, err := afero.ReadFile(f.Fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	header := http.Header{}
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		header.Set("Content-Type", ct)
	}
	return &StoredResponse{Status: http.StatusOK, Header: header, Body: body}, nil
}
