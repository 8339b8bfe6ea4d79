package sw

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Fetcher is the injected network collaborator. Install uses it to pull
// manifest assets; fetch dispatch uses it for cache-miss passthrough. Tests
// substitute a counting fake.
type Fetcher interface {
	Fetch(ctx context.Context, method, url string) (*StoredResponse, error)
}

// HTTPFetcher resolves relative request paths against a base URL and fetches
// them over a real HTTP client.
type HTTPFetcher struct {
	Client  *http.Client
	BaseURL string
}

func NewHTTPFetcher(client *http.Client, baseURL string) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{
		Client:  client,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, method, url string) (*StoredResponse, error) {
	target := url
	if strings.HasPrefix(url, "/") {
		target = f.BaseURL + url
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return &StoredResponse{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}
