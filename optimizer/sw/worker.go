package sw

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// State is the lifecycle position of a worker generation.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return "unknown"
	}
}

// RequestKey is the request identity used by the durable store: method plus
// URL. Only GET is ever stored.
func RequestKey(method, url string) string {
	return method + " " + url
}

// Worker is one cache generation of the offline asset service. It installs a
// fixed manifest into its generation's durable store and answers intercepted
// fetches cache-first once active. The store is never written outside
// Install, so concurrent fetch handling needs no locking beyond the state
// word.
type Worker struct {
	tag      string
	manifest Manifest
	store    DurableStore
	fetcher  Fetcher
	logger   *slog.Logger

	purgeOnActivate bool

	mu    sync.RWMutex
	state State
}

// Option configures a Worker.
type Option func(*Worker)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Worker) { w.logger = l }
}

// WithPurgeOnActivate controls whether stale generations are deleted when
// this worker activates. Defaults to true.
func WithPurgeOnActivate(purge bool) Option {
	return func(w *Worker) { w.purgeOnActivate = purge }
}

// New creates a worker for the given generation tag. The manifest is
// validated eagerly; store and fetcher are the injected collaborators.
func New(tag string, manifest Manifest, store DurableStore, fetcher Fetcher, opts ...Option) (*Worker, error) {
	if tag == "" {
		return nil, fmt.Errorf("generation tag must not be empty")
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	w := &Worker{
		tag:             tag,
		manifest:        manifest.Deduped(),
		store:           store,
		fetcher:         fetcher,
		logger:          slog.Default(),
		purgeOnActivate: true,
		state:           StateNew,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Tag returns the generation tag.
func (w *Worker) Tag() string { return w.tag }

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}

// Install fetches every manifest URL and commits all of them to this
// generation's store in a single transaction. Any unreachable or non-success
// asset aborts the whole install and leaves no partial store behind.
// Re-installing an already-populated generation rewrites the same keys and
// is not an error.
func (w *Worker) Install(ctx context.Context) error {
	switch w.State() {
	case StateNew, StateInstalled, StateActive:
	default:
		return fmt.Errorf("%w: cannot install from %s", ErrInvalidState, w.State())
	}
	w.setState(StateInstalling)

	entries := make(map[string]*StoredResponse, len(w.manifest))
	for _, url := range w.manifest {
		resp, err := w.fetcher.Fetch(ctx, http.MethodGet, url)
		if err != nil {
			w.setState(StateRedundant)
			return fmt.Errorf("install %s: %s: %w: %v", w.tag, url, ErrManifestAssetUnavailable, err)
		}
		if !resp.OK() {
			w.setState(StateRedundant)
			return fmt.Errorf("install %s: %s returned %d: %w", w.tag, url, resp.Status, ErrManifestAssetUnavailable)
		}
		entries[RequestKey(http.MethodGet, url)] = resp
	}

	if err := w.store.PutAll(w.tag, entries); err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("install %s: %w", w.tag, err)
	}

	w.setState(StateInstalled)
	w.logger.Info("generation installed", "tag", w.tag, "assets", len(entries))
	return nil
}

// Activate marks this generation as the single active one. When
// purge-on-activate is enabled (the default), every other generation's store
// is deleted once this one takes over. Activating an already-active worker
// is a no-op.
func (w *Worker) Activate(ctx context.Context) error {
	switch w.State() {
	case StateActive:
		return nil
	case StateInstalled:
	default:
		return fmt.Errorf("%w: cannot activate from %s", ErrInvalidState, w.State())
	}
	w.setState(StateActivating)

	if err := w.store.SetActive(w.tag); err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("activate %s: %w", w.tag, err)
	}

	if w.purgeOnActivate {
		tags, err := w.store.Generations()
		if err != nil {
			w.setState(StateRedundant)
			return fmt.Errorf("activate %s: %w", w.tag, err)
		}
		for _, tag := range tags {
			if tag == w.tag {
				continue
			}
			if err := w.store.DeleteGeneration(tag); err != nil {
				w.logger.Warn("failed to purge stale generation", "tag", tag, "error", err)
				continue
			}
			w.logger.Info("purged stale generation", "tag", tag)
		}
	}

	w.setState(StateActive)
	w.logger.Info("generation activated", "tag", w.tag)
	return nil
}

// HandleFetch dispatches one intercepted request. Cache hits are answered
// verbatim from the store with no network call and no freshness check.
// Misses (and all non-GET requests) pass through to the network exactly
// once; the result is never inserted into the cache. A transport failure on
// passthrough propagates to the caller as ErrNetworkUnavailable.
func (w *Worker) HandleFetch(ctx context.Context, method, url string) (*StoredResponse, error) {
	if method == http.MethodGet && w.State() == StateActive {
		stored, ok, err := w.store.Get(w.tag, RequestKey(method, url))
		if err != nil {
			return nil, fmt.Errorf("cache lookup %s: %w", url, err)
		}
		if ok {
			return stored.Clone(), nil
		}
	}

	resp, err := w.fetcher.Fetch(ctx, method, url)
	if err != nil {
		return nil, fmt.Errorf("passthrough %s %s: %w: %v", method, url, ErrNetworkUnavailable, err)
	}
	return resp, nil
}
