package screenconfig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"photobooth-admin-api/internal/logger"
)

type EngineOptions struct {
	Store    Store
	Resolver Resolver
	Events   ActiveEventSource
	Notifier Notifier
	Log      logger.Logger
	Debounce time.Duration
	Now      func() time.Time
}

// Engine owns the configuration being edited for one screen. It holds one
// snapshot at a time; every edit replaces it and re-arms a debounced save.
// pending is the snapshot produced by the last update that has not been
// written yet. Imports replace current but never pending.
type Engine struct {
	resolver  Resolver
	loader    *Loader
	persister *Persister
	log       logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	screenKey string
	current   *ScreenConfig
	pending   *ScreenConfig
	closed    bool
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	e := &Engine{
		resolver: opts.Resolver,
		log:      opts.Log,
		now:      opts.Now,
	}
	e.loader = &Loader{Store: opts.Store, Resolver: opts.Resolver, Log: opts.Log, Now: opts.Now}
	e.persister = NewPersister(PersisterOptions{
		Store:      opts.Store,
		Resolver:   opts.Resolver,
		Associator: &EventAssociator{Store: opts.Store, Events: opts.Events, Now: opts.Now},
		Notifier:   opts.Notifier,
		Log:        opts.Log,
		Wait:       opts.Debounce,
		Source:     e.takePending,
		OnSaved:    e.saved,
	})
	return e
}

// Load reads (or creates) the configuration of screenKey and makes it the
// current snapshot.
func (e *Engine) Load(ctx context.Context, screenKey string) (*ScreenConfig, error) {
	if e.isClosed() {
		return nil, ErrClosed
	}
	cfg, err := e.loader.Load(ctx, screenKey)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	e.screenKey = screenKey
	e.current = cfg
	return cfg, nil
}

// Update applies upd and schedules a debounced save.
func (e *Engine) Update(upd Update) (*ScreenConfig, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if e.current == nil {
		e.mu.Unlock()
		return nil, ErrNotLoaded
	}
	next, err := Apply(e.current, upd, e.now)
	if err != nil {
		e.mu.Unlock()
		e.log.Warn("rejected screen config update", "screen_key", e.screenKey, "path", upd.Path(), "error", err)
		return nil, err
	}
	e.current = next
	e.pending = next
	e.mu.Unlock()

	e.persister.Schedule()
	return next, nil
}

// UpdatePath is Update for a dotted "field" or "section.field" path.
func (e *Engine) UpdatePath(path, value any) (*ScreenConfig, error) {
	upd, err := ParsePath(path, value)
	if err != nil {
		e.log.Warn("rejected screen config update", "screen_key", e.ScreenKey(), "path", fmt.Sprint(path), "error", err)
		return nil, err
	}
	return e.Update(upd)
}

// ForceSave writes the current snapshot immediately, dropping any pending
// debounced save.
func (e *Engine) ForceSave(ctx context.Context) (*ScreenConfig, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	cfg := e.current
	e.pending = nil
	e.mu.Unlock()
	return e.persister.Flush(ctx, cfg)
}

// FlushPending writes the last updated snapshot now if a debounced save is
// waiting for it. It returns nil when nothing was pending. An import that was
// never followed by an update or ForceSave stays unsaved.
func (e *Engine) FlushPending(ctx context.Context) (*ScreenConfig, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	cfg := e.pending
	e.pending = nil
	e.mu.Unlock()
	if cfg == nil {
		e.persister.Cancel()
		return nil, nil
	}
	return e.persister.Flush(ctx, cfg)
}

func (e *Engine) ExportConfig() ([]byte, error) {
	cfg := e.Config()
	if cfg == nil {
		return nil, ErrNotLoaded
	}
	return Export(cfg)
}

// ImportConfig replaces the current snapshot with doc. Nothing is saved
// until the next update or ForceSave.
func (e *Engine) ImportConfig(doc any) (*ScreenConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if e.current == nil {
		return nil, ErrNotLoaded
	}
	next, err := Import(e.current, doc, e.now)
	if err != nil {
		e.log.Warn("rejected screen config import", "screen_key", e.screenKey, "error", err)
		return nil, err
	}
	e.current = next
	return next, nil
}

// Config returns the current snapshot, or nil before Load.
func (e *Engine) Config() *ScreenConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

func (e *Engine) ScreenKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.screenKey
}

func (e *Engine) DisplayName() string {
	e.mu.Lock()
	cfg, key := e.current, e.screenKey
	e.mu.Unlock()
	if cfg == nil {
		return GenericName(key)
	}
	return e.resolver.DisplayName(cfg.ID, cfg.ScreenKey)
}

// Close drops any pending save. Saves already in flight finish but their
// results are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.pending = nil
	e.mu.Unlock()
	e.persister.Cancel()
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// takePending hands the pending snapshot to the debounced write and clears
// it.
func (e *Engine) takePending() *ScreenConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	cfg := e.pending
	e.pending = nil
	return cfg
}

// saved adopts the identity a write was made under, so a session started
// before discovery converges on the discovered row.
func (e *Engine) saved(cfg *ScreenConfig) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.current == nil || e.current.ScreenKey != cfg.ScreenKey || e.current.ID == cfg.ID {
		return
	}
	next := *e.current
	next.ID = cfg.ID
	e.current = &next
}
