package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"nhsdash/internal/dataset"
)

// Observer receives one callback per Render call.
type Observer interface {
	ObserveRender(ctx context.Context, view string, cached bool, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveRender(context.Context, string, bool, time.Duration, error) {}

type cacheKey struct {
	view     string
	provider string
}

// Renderer memoizes Build results for one immutable table. Only selections
// that can be valid (All or a provider present in the table) are cached,
// which bounds the cache at views × (providers + 1) entries.
type Renderer struct {
	table    *dataset.Table
	logger   *slog.Logger
	observer Observer
	caching  bool
	known    map[string]struct{}

	mu    sync.RWMutex
	cache map[cacheKey]Artifact
	group singleflight.Group
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithLogger sets the renderer logger.
func WithLogger(logger *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver reports every render to o.
func WithObserver(o Observer) RendererOption {
	return func(r *Renderer) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithCache turns memoization on or off. It is on by default.
func WithCache(enabled bool) RendererOption {
	return func(r *Renderer) {
		r.caching = enabled
	}
}

// NewRenderer creates a renderer over table.
func NewRenderer(table *dataset.Table, opts ...RendererOption) *Renderer {
	r := &Renderer{
		table:    table,
		logger:   slog.Default(),
		observer: noopObserver{},
		caching:  true,
		cache:    make(map[cacheKey]Artifact),
		known:    make(map[string]struct{}),
	}
	for _, p := range table.Providers() {
		r.known[p] = struct{}{}
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("component", "renderer"))
	return r
}

// Table returns the table the renderer draws from.
func (r *Renderer) Table() *dataset.Table {
	return r.table
}

// Render returns the artifact for (view, provider). Unknown views fail with
// ErrUnknownView; unknown providers render over an empty selection.
func (r *Renderer) Render(ctx context.Context, view, provider string) (Artifact, error) {
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	key := cacheKey{view: view, provider: provider}
	if r.caching {
		r.mu.RLock()
		a, ok := r.cache[key]
		r.mu.RUnlock()
		if ok {
			r.observer.ObserveRender(ctx, view, true, time.Since(start), nil)
			return a, nil
		}
	}

	v, err, shared := r.group.Do(view+"\x00"+provider, func() (interface{}, error) {
		a, err := Render(r.table, view, provider)
		if err != nil {
			return Artifact{}, err
		}
		if r.caching && r.cacheable(provider) {
			r.mu.Lock()
			r.cache[key] = a
			r.mu.Unlock()
		}
		return a, nil
	})
	r.observer.ObserveRender(ctx, view, false, time.Since(start), err)
	if err != nil {
		r.logger.WarnContext(ctx, "render failed",
			slog.String("view", view),
			slog.String("provider", provider),
			slog.String("error", err.Error()))
		return Artifact{}, err
	}

	r.logger.DebugContext(ctx, "view rendered",
		slog.String("view", view),
		slog.String("provider", provider),
		slog.Bool("shared", shared),
		slog.Duration("duration", time.Since(start)))

	return v.(Artifact), nil
}

// CacheSize returns the number of memoized artifacts.
func (r *Renderer) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Warm renders every view for every valid selection.
func (r *Renderer) Warm(ctx context.Context) error {
	selectors := append([]string{dataset.AllProviders}, r.table.Providers()...)
	for _, v := range views {
		for _, s := range selectors {
			if _, err := r.Render(ctx, v.ID, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) cacheable(provider string) bool {
	if isAll(provider) {
		return true
	}
	_, ok := r.known[provider]
	return ok
}
