package screenconfig

import (
	"context"
	"errors"
	"time"

	"photobooth-admin-api/internal/logger"
)

type Loader struct {
	Store    Store
	Resolver Resolver
	Log      logger.Logger
	Now      func() time.Time
}

// Load returns the hydrated configuration of a screen. A screen without a
// stored row gets a default one, written before Load returns.
func (l *Loader) Load(ctx context.Context, screenKey string) (*ScreenConfig, error) {
	id := l.Resolver.Resolve(ctx, screenKey)

	row, err := l.Store.Read(ctx, id)
	if err == nil {
		return Hydrate(row), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, &StoreError{Op: "read", Err: err}
	}

	cfg := NewDefaultConfig(id, l.Resolver.Identity(screenKey), stamp(l.now, time.Time{}))
	newRow, err := ToRow(cfg)
	if err != nil {
		return nil, err
	}
	if err := l.Store.Upsert(ctx, newRow); err != nil {
		return nil, &StoreError{Op: "create", Err: err}
	}
	l.log().Info("created default screen config", "screen_key", screenKey, "screen_id", id)
	return cfg, nil
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loader) log() logger.Logger {
	if l.Log == nil {
		return logger.Nop()
	}
	return l.Log
}

// stamp returns a UTC, microsecond precision time that is strictly after prev.
func stamp(now func() time.Time, prev time.Time) time.Time {
	t := now().UTC().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	return t
}
