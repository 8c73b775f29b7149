package screenconfig

import (
	"context"
	"time"

	"github.com/romdo/go-debounce"

	"photobooth-admin-api/internal/logger"
)

const DefaultDebounce = 1000 * time.Millisecond

// Persister coalesces scheduled saves into one write per quiet period.
type Persister struct {
	store      Store
	resolver   Resolver
	associator *EventAssociator
	notifier   Notifier
	log        logger.Logger

	// source hands over the snapshot the debounced write stores, or nil when
	// there is nothing left to write.
	source  func() *ScreenConfig
	onSaved func(saved *ScreenConfig)

	debounced func()
	cancel    func()
}

type PersisterOptions struct {
	Store      Store
	Resolver   Resolver
	Associator *EventAssociator
	Notifier   Notifier
	Log        logger.Logger
	Wait       time.Duration
	Source     func() *ScreenConfig
	OnSaved    func(saved *ScreenConfig)
}

func NewPersister(opts PersisterOptions) *Persister {
	if opts.Wait <= 0 {
		opts.Wait = DefaultDebounce
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	p := &Persister{
		store:      opts.Store,
		resolver:   opts.Resolver,
		associator: opts.Associator,
		notifier:   opts.Notifier,
		log:        opts.Log,
		source:     opts.Source,
		onSaved:    opts.OnSaved,
	}
	p.debounced, p.cancel = debounce.New(opts.Wait, p.fire)
	return p
}

// Schedule re-arms the quiet period. When the timer fires, the snapshot
// returned by source is written.
func (p *Persister) Schedule() {
	p.debounced()
}

// Cancel drops a pending write without flushing it.
func (p *Persister) Cancel() {
	p.cancel()
}

// Flush cancels any pending write and writes cfg now.
func (p *Persister) Flush(ctx context.Context, cfg *ScreenConfig) (*ScreenConfig, error) {
	p.cancel()
	if cfg == nil {
		return nil, ErrNotLoaded
	}
	return p.Write(ctx, cfg)
}

func (p *Persister) fire() {
	if p.source == nil {
		return
	}
	cfg := p.source()
	if cfg == nil {
		return
	}
	if _, err := p.Write(context.Background(), cfg); err != nil {
		p.log.Error("debounced screen config save failed", "screen_key", cfg.ScreenKey, "error", err)
	}
}

// Write re-applies the defaults, re-resolves the identity and upserts the
// row. Event association and notification run afterwards and only log on
// failure.
func (p *Persister) Write(ctx context.Context, cfg *ScreenConfig) (*ScreenConfig, error) {
	merged := MergeAll(cfg)
	merged.ID = p.resolver.Resolve(ctx, merged.ScreenKey)

	row, err := ToRow(merged)
	if err != nil {
		return nil, err
	}
	if err := p.store.Upsert(ctx, row); err != nil {
		return nil, &StoreError{Op: "upsert", Err: err}
	}
	p.log.Debug("screen config saved", "screen_key", merged.ScreenKey, "screen_id", merged.ID)

	if p.associator != nil {
		if err := p.associator.Associate(ctx, merged.ID); err != nil {
			p.log.Warn("event association failed", "screen_key", merged.ScreenKey, "error", err)
		}
	}
	if p.notifier != nil {
		if err := p.notifier.ConfigSaved(ctx, merged); err != nil {
			p.log.Warn("config saved notification failed", "screen_key", merged.ScreenKey, "error", err)
		}
	}
	if p.onSaved != nil {
		p.onSaved(merged)
	}
	return merged, nil
}
