package sw

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Registry models the host environment's single-worker-per-origin
// registration state as explicit, injectable plumbing. Registering script
// bytes derives a generation tag from their content: unchanged bytes are a
// no-op, changed bytes install a new generation that waits until the
// harness activates it. The first generation ever registered activates
// immediately, since nothing is being superseded.
type Registry struct {
	store   DurableStore
	fetcher Fetcher
	logger  *slog.Logger
	opts    []Option

	mu      sync.Mutex
	current *Worker
	waiting *Worker
}

func NewRegistry(store DurableStore, fetcher Fetcher, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		store:   store,
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
	}
}

// Register installs the worker described by script bytes and manifest. If
// the derived tag matches the current generation the call is a no-op, which
// mirrors the host platform's byte-comparison versioning. A new tag installs
// alongside the current generation; the old one keeps serving until
// ActivateWaiting is called (updates are conservative, never forced).
func (r *Registry) Register(ctx context.Context, script []byte, manifest Manifest) (*Worker, error) {
	return r.RegisterTag(ctx, TagFromScript(script), manifest)
}

// RegisterTag is Register with an explicit generation tag, for deterministic
// upgrade simulation.
func (r *Registry) RegisterTag(ctx context.Context, tag string, manifest Manifest) (*Worker, error) {
	r.mu.Lock()
	if r.current != nil && r.current.Tag() == tag {
		w := r.current
		r.mu.Unlock()
		return w, nil
	}
	if r.waiting != nil && r.waiting.Tag() == tag {
		w := r.waiting
		r.mu.Unlock()
		return w, nil
	}
	r.mu.Unlock()

	opts := append([]Option{WithLogger(r.logger)}, r.opts...)
	w, err := New(tag, manifest, r.store, r.fetcher, opts...)
	if err != nil {
		return nil, err
	}

	if err := w.Install(ctx); err != nil {
		// Failed install never supersedes anything; the previous
		// generation keeps serving.
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		if err := w.Activate(ctx); err != nil {
			return nil, err
		}
		r.current = w
		return w, nil
	}
	r.waiting = w
	r.logger.Info("generation waiting", "tag", tag, "current", r.current.Tag())
	return w, nil
}

// ActivateWaiting promotes the waiting generation, if any, to current. The
// harness calls this once no page is controlled by the old generation.
func (r *Registry) ActivateWaiting(ctx context.Context) error {
	r.mu.Lock()
	w := r.waiting
	r.mu.Unlock()
	if w == nil {
		return nil
	}
	if err := w.Activate(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	r.current = w
	r.waiting = nil
	r.mu.Unlock()
	return nil
}

// Current returns the active worker, or nil before any registration.
func (r *Registry) Current() *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Waiting returns the installed-but-not-yet-active worker, or nil.
func (r *Registry) Waiting() *Worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.waiting
}

// HandleFetch dispatches through the current generation. Before any
// generation is active, requests behave exactly like an uncached page.
func (r *Registry) HandleFetch(ctx context.Context, method, url string) (*StoredResponse, error) {
	w := r.Current()
	if w == nil {
		resp, err := r.fetcher.Fetch(ctx, method, url)
		if err != nil {
			return nil, fmt.Errorf("passthrough %s %s: %w: %v", method, url, ErrNetworkUnavailable, err)
		}
		return resp, nil
	}
	return w.HandleFetch(ctx, method, url)
}

// Unregister drops the current and waiting generations without touching the
// durable store.
func (r *Registry) Unregister() {
	r.mu.Lock()
	r.current = nil
	r.waiting = nil
	r.mu.Unlock()
}
