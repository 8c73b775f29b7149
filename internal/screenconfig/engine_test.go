package screenconfig

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestEngine(t *testing.T, store Store, resolver Resolver) *Engine {
	t.Helper()
	e := NewEngine(EngineOptions{
		Store:    store,
		Resolver: resolver,
		Debounce: time.Hour,
		Now:      newTestClock().Now,
	})
	t.Cleanup(e.Close)
	return e
}

func TestEngine_UpdateBeforeLoad(t *testing.T) {
	e := newTestEngine(t, newMemStore(), newStubResolver(nil))

	if _, err := e.UpdatePath("name", "x"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := e.ExportConfig(); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if _, err := e.ImportConfig(`{}`); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if e.DisplayName() != "Screen" {
		t.Fatalf("DisplayName before load = %q", e.DisplayName())
	}
}

func TestEngine_LoadUpdateForceSave(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(t, store, newStubResolver(map[string]string{"vertical1": "id-v1"}))

	if _, err := e.Load(context.Background(), "vertical1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if e.ScreenKey() != "vertical1" || e.DisplayName() != "Vertical 1" {
		t.Fatalf("unexpected session identity %q / %q", e.ScreenKey(), e.DisplayName())
	}

	updated, err := e.UpdatePath("appearance_params.primary_color", "#ff0000")
	if err != nil {
		t.Fatalf("UpdatePath: %v", err)
	}
	if e.Config() != updated {
		t.Fatalf("Config should return the latest snapshot")
	}
	if store.upsertCount() != 1 {
		t.Fatalf("update should not write before the quiet period")
	}

	saved, err := e.ForceSave(context.Background())
	if err != nil {
		t.Fatalf("ForceSave: %v", err)
	}
	if saved.AppearanceParams["primary_color"] != "#ff0000" {
		t.Fatalf("saved snapshot = %#v", saved.AppearanceParams)
	}
	row, _ := store.row("id-v1")
	if got := Hydrate(&row).AppearanceParams["primary_color"]; got != "#ff0000" {
		t.Fatalf("stored primary_color = %v", got)
	}
}

func TestEngine_RejectedUpdateLeavesStateAlone(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(t, store, newStubResolver(nil))
	if _, err := e.Load(context.Background(), "vertical1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	before := e.Config()

	if _, err := e.UpdatePath(7, "x"); !errors.Is(err, ErrPathNotString) {
		t.Fatalf("expected ErrPathNotString, got %v", err)
	}
	if _, err := e.UpdatePath("type", "round"); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if e.Config() != before {
		t.Fatalf("rejected updates replaced the snapshot")
	}
}

func TestEngine_ImportDoesNotPersist(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(t, store, newStubResolver(nil))
	if _, err := e.Load(context.Background(), "vertical1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	next, err := e.ImportConfig(`{"name":"From File","capture_params":{"countdown":10}}`)
	if err != nil {
		t.Fatalf("ImportConfig: %v", err)
	}
	if next.Name != "From File" || e.Config().Name != "From File" {
		t.Fatalf("import not applied")
	}
	if store.upsertCount() != 1 {
		t.Fatalf("import should not write, got %d upserts", store.upsertCount())
	}

	doc, err := e.ExportConfig()
	if err != nil {
		t.Fatalf("ExportConfig: %v", err)
	}
	if len(doc) == 0 {
		t.Fatalf("empty export")
	}
}

func TestEngine_ForceSaveAdoptsResolvedID(t *testing.T) {
	store := newMemStore()
	resolver := newStubResolver(nil)
	e := newTestEngine(t, store, resolver)

	cfg, err := e.Load(context.Background(), "vertical4")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ID != "vertical4" {
		t.Fatalf("pre-discovery id = %q", cfg.ID)
	}

	resolver.set("vertical4", "real-id")
	if _, err := e.ForceSave(context.Background()); err != nil {
		t.Fatalf("ForceSave: %v", err)
	}
	if e.Config().ID != "real-id" {
		t.Fatalf("session did not converge, id = %q", e.Config().ID)
	}
}

func TestEngine_CloseDropsPendingSave(t *testing.T) {
	store := newMemStore()
	e := NewEngine(EngineOptions{
		Store:    store,
		Resolver: newStubResolver(nil),
		Debounce: 20 * time.Millisecond,
	})
	if _, err := e.Load(context.Background(), "vertical1"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := e.UpdatePath("name", "Pending"); err != nil {
		t.Fatalf("UpdatePath: %v", err)
	}
	e.Close()
	time.Sleep(80 * time.Millisecond)

	if store.upsertCount() != 1 {
		t.Fatalf("pending save ran after Close")
	}
	if _, err := e.UpdatePath("name", "x"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := e.ForceSave(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := e.Load(context.Background(), "vertical1"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestEngine_DebouncedSaveIgnoresLaterImport(t *testing.T) {
	store := newMemStore()
	e := NewEngine(EngineOptions{
		Store:    store,
		Resolver: newStubResolver(map[string]string{"vertical1": "id-v1"}),
		Debounce: 30 * time.Millisecond,
	})
	t.Cleanup(e.Close)
	if _, err := e.Load(context.Background(), "vertical1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := e.UpdatePath("name", "Edited"); err != nil {
		t.Fatalf("UpdatePath: %v", err)
	}
	if _, err := e.ImportConfig(`{"name":"Imported Provisional"}`); err != nil {
		t.Fatalf("ImportConfig: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return store.upsertCount() == 2 })
	time.Sleep(100 * time.Millisecond)
	if n := store.upsertCount(); n != 2 {
		t.Fatalf("expected one debounced save, got %d writes", n-1)
	}
	row, _ := store.row("id-v1")
	if row.Name != "Edited" {
		t.Fatalf("stored name = %q, want the last update", row.Name)
	}
	if e.Config().Name != "Imported Provisional" {
		t.Fatalf("session lost the import, name = %q", e.Config().Name)
	}
}

func TestEngine_FlushPending(t *testing.T) {
	store := newMemStore()
	e := newTestEngine(t, store, newStubResolver(map[string]string{"vertical1": "id-v1"}))
	if _, err := e.Load(context.Background(), "vertical1"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	saved, err := e.FlushPending(context.Background())
	if err != nil || saved != nil {
		t.Fatalf("nothing pending, got %v / %v", saved, err)
	}

	if _, err := e.UpdatePath("name", "Edited"); err != nil {
		t.Fatalf("UpdatePath: %v", err)
	}
	if _, err := e.ImportConfig(`{"name":"Imported"}`); err != nil {
		t.Fatalf("ImportConfig: %v", err)
	}
	saved, err = e.FlushPending(context.Background())
	if err != nil {
		t.Fatalf("FlushPending: %v", err)
	}
	if saved == nil || saved.Name != "Edited" {
		t.Fatalf("flushed snapshot = %#v", saved)
	}
	if saved, _ := e.FlushPending(context.Background()); saved != nil {
		t.Fatalf("pending snapshot written twice")
	}
	if store.upsertCount() != 2 {
		t.Fatalf("expected 2 upserts, got %d", store.upsertCount())
	}
}
