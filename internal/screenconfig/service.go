package screenconfig

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"sync"
	"time"

	"photobooth-admin-api/internal/logger"
	"photobooth-admin-api/internal/report"
)

const (
	ActionSave    = "screen_config.save"
	ActionImport  = "screen_config.import"
	ActionArchive = "screen_config.archive"
)

var screenKeyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// ValidScreenKey reports whether key can name a screen. Keys end up in
// object paths and message subjects, so they are restricted to a safe set.
func ValidScreenKey(key string) bool {
	return screenKeyPattern.MatchString(key)
}

type ScreenView struct {
	Config      *ScreenConfig `json:"config"`
	DisplayName string        `json:"display_name"`
}

type ScreenSummary struct {
	ScreenIdentity
	DisplayName string `json:"display_name"`
	SessionOpen bool   `json:"session_open"`
}

type TerminalConfigResult struct {
	NotModified bool
	Config      *ScreenConfig
}

type ServiceOptions struct {
	Store    Store
	Resolver Resolver
	Events   ActiveEventSource
	Notifier Notifier
	Archiver Archiver
	Auditor  Auditor
	Log      logger.Logger
	Debounce time.Duration
	Now      func() time.Time
}

type session struct {
	engine *Engine
	// loadMu serialises the first Load so concurrent requests don't race
	// a reload over fresh edits.
	loadMu sync.Mutex
}

// ScreenConfigService keeps one editing session per screen key.
type ScreenConfigService struct {
	opts ServiceOptions
	log  logger.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewScreenConfigService(opts ServiceOptions) *ScreenConfigService {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ScreenConfigService{
		opts:     opts,
		log:      opts.Log,
		sessions: map[string]*session{},
	}
}

func (s *ScreenConfigService) Screens(ctx context.Context) []ScreenSummary {
	if r, ok := s.opts.Resolver.(interface{ Discover(context.Context) error }); ok {
		if err := r.Discover(ctx); err != nil {
			s.log.Warn("screen discovery failed", "error", err)
		}
	}

	s.mu.Lock()
	open := make(map[string]bool, len(s.sessions))
	for k := range s.sessions {
		open[k] = true
	}
	s.mu.Unlock()

	idents := s.opts.Resolver.Screens()
	out := make([]ScreenSummary, 0, len(idents))
	for _, ident := range idents {
		name := ident.Name
		if ident.ID != "" {
			name = s.opts.Resolver.DisplayName(ident.ID, ident.Key)
		}
		out = append(out, ScreenSummary{
			ScreenIdentity: ident,
			DisplayName:    name,
			SessionOpen:    open[ident.Key],
		})
	}
	return out
}

func (s *ScreenConfigService) Get(ctx context.Context, screenKey string) (*ScreenView, error) {
	e, err := s.session(ctx, screenKey)
	if err != nil {
		return nil, err
	}
	return s.view(e, e.Config()), nil
}

func (s *ScreenConfigService) Update(ctx context.Context, screenKey string, path, value any) (*ScreenView, error) {
	e, err := s.session(ctx, screenKey)
	if err != nil {
		return nil, err
	}
	cfg, err := e.UpdatePath(path, value)
	if err != nil {
		return nil, err
	}
	return s.view(e, cfg), nil
}

func (s *ScreenConfigService) Save(ctx context.Context, screenKey string, operatorID *uint) (*ScreenView, error) {
	e, err := s.session(ctx, screenKey)
	if err != nil {
		return nil, err
	}
	saved, err := e.ForceSave(ctx)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, operatorID, ActionSave, screenKey, "saved screen configuration", map[string]any{
		"screen_id":  saved.ID,
		"updated_at": saved.UpdatedAt,
	})
	return s.view(e, saved), nil
}

func (s *ScreenConfigService) Export(ctx context.Context, screenKey string) ([]byte, error) {
	e, err := s.session(ctx, screenKey)
	if err != nil {
		return nil, err
	}
	return e.ExportConfig()
}

// ArchiveExport exports the current snapshot and hands it to the archiver.
func (s *ScreenConfigService) ArchiveExport(ctx context.Context, screenKey string, operatorID *uint) (string, error) {
	if s.opts.Archiver == nil {
		return "", ErrArchiveDisabled
	}
	doc, err := s.Export(ctx, screenKey)
	if err != nil {
		return "", err
	}
	url, err := s.opts.Archiver.Archive(ctx, screenKey, doc)
	if err != nil {
		return "", err
	}
	s.audit(ctx, operatorID, ActionArchive, screenKey, "archived screen configuration export", map[string]any{
		"location": url,
	})
	return url, nil
}

func (s *ScreenConfigService) Archives(ctx context.Context, screenKey string) ([]string, error) {
	if !ValidScreenKey(screenKey) {
		return nil, ErrInvalidKey
	}
	if s.opts.Archiver == nil {
		return nil, ErrArchiveDisabled
	}
	return s.opts.Archiver.List(ctx, screenKey)
}

// Import replaces the session snapshot with doc. The result is written by
// the next update or save.
func (s *ScreenConfigService) Import(ctx context.Context, screenKey string, doc any, operatorID *uint) (*ScreenView, error) {
	e, err := s.session(ctx, screenKey)
	if err != nil {
		return nil, err
	}
	cfg, err := e.ImportConfig(doc)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, operatorID, ActionImport, screenKey, "imported screen configuration", map[string]any{
		"screen_id": cfg.ID,
	})
	return s.view(e, cfg), nil
}

// CloseSession disposes of a screen's engine. A pending save is dropped.
func (s *ScreenConfigService) CloseSession(screenKey string) bool {
	s.mu.Lock()
	sess, ok := s.sessions[screenKey]
	delete(s.sessions, screenKey)
	s.mu.Unlock()

	if ok {
		sess.engine.Close()
		s.log.Debug("screen config session closed", "screen_key", screenKey)
	}
	return ok
}

// Shutdown writes the pending debounced edit of every session and closes it.
// Unsaved imports are discarded.
func (s *ScreenConfigService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*session{}
	s.mu.Unlock()

	var errs []error
	for key, sess := range sessions {
		if _, err := sess.engine.FlushPending(ctx); err != nil {
			s.log.Error("final screen config save failed", "screen_key", key, "error", err)
			errs = append(errs, err)
		}
		sess.engine.Close()
	}
	return errors.Join(errs...)
}

// Report renders every stored configuration as a spreadsheet.
func (s *ScreenConfigService) Report(ctx context.Context) ([]byte, error) {
	rows, err := s.opts.Store.List(ctx)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}

	screens := make([]report.Screen, 0, len(rows))
	for i := range rows {
		cfg := Hydrate(&rows[i])
		screens = append(screens, report.Screen{
			Key:         cfg.ScreenKey,
			ID:          cfg.ID,
			Name:        s.opts.Resolver.DisplayName(cfg.ID, cfg.ScreenKey),
			Type:        cfg.Type,
			Orientation: cfg.Orientation,
			Ratio:       cfg.Ratio,
			Sections: map[string]map[string]any{
				SectionCapture:    cfg.CaptureParams,
				SectionAppearance: cfg.AppearanceParams,
				SectionAdvanced:   cfg.AdvancedParams,
			},
			UpdatedAt: cfg.UpdatedAt,
		})
	}
	sort.SliceStable(screens, func(i, j int) bool { return screens[i].Key < screens[j].Key })

	return report.BuildScreensWorkbook(screens)
}

// GetIfModified serves the stored configuration to a booth terminal. It never
// creates rows and ignores unsaved session edits. When since is set and the
// row is not newer, only NotModified is meaningful.
func (s *ScreenConfigService) GetIfModified(ctx context.Context, screenKey string, since *time.Time) (*TerminalConfigResult, error) {
	if !ValidScreenKey(screenKey) {
		return nil, ErrInvalidKey
	}
	id := s.opts.Resolver.Resolve(ctx, screenKey)
	row, err := s.opts.Store.Read(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Op: "read", Err: err}
	}

	cfg := Hydrate(row)
	if since != nil && !cfg.UpdatedAt.After(*since) {
		return &TerminalConfigResult{NotModified: true, Config: cfg}, nil
	}
	return &TerminalConfigResult{NotModified: false, Config: cfg}, nil
}

// session returns the loaded engine for screenKey, creating and loading it
// on first use.
func (s *ScreenConfigService) session(ctx context.Context, screenKey string) (*Engine, error) {
	if !ValidScreenKey(screenKey) {
		return nil, ErrInvalidKey
	}

	s.mu.Lock()
	sess, ok := s.sessions[screenKey]
	if !ok {
		sess = &session{engine: NewEngine(EngineOptions{
			Store:    s.opts.Store,
			Resolver: s.opts.Resolver,
			Events:   s.opts.Events,
			Notifier: s.opts.Notifier,
			Log:      s.log.With("screen_key", screenKey),
			Debounce: s.opts.Debounce,
			Now:      s.opts.Now,
		})}
		s.sessions[screenKey] = sess
	}
	s.mu.Unlock()

	sess.loadMu.Lock()
	defer sess.loadMu.Unlock()
	if sess.engine.Config() == nil {
		if _, err := sess.engine.Load(ctx, screenKey); err != nil {
			s.mu.Lock()
			if s.sessions[screenKey] == sess {
				delete(s.sessions, screenKey)
			}
			s.mu.Unlock()
			sess.engine.Close()
			return nil, err
		}
	}
	return sess.engine, nil
}

func (s *ScreenConfigService) view(e *Engine, cfg *ScreenConfig) *ScreenView {
	return &ScreenView{Config: cfg, DisplayName: e.DisplayName()}
}

func (s *ScreenConfigService) audit(ctx context.Context, operatorID *uint, action, screenKey, message string, metadata any) {
	if s.opts.Auditor == nil {
		return
	}
	if err := s.opts.Auditor.Record(ctx, operatorID, action, screenKey, message, metadata); err != nil {
		s.log.Warn("audit record failed", "action", action, "screen_key", screenKey, "error", err)
	}
}
