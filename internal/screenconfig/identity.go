package screenconfig

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"photobooth-admin-api/internal/logger"
)

// Resolver maps logical screen keys to storage identities and back to names.
type Resolver interface {
	Resolve(ctx context.Context, screenKey string) string
	DisplayName(id, screenKey string) string
	Identity(screenKey string) ScreenIdentity
	Screens() []ScreenIdentity
}

// IdentityMap is the read-only table of screens known at startup. Core
// screens carry a fixed ID; optional screens are discovered from the store.
type IdentityMap struct {
	screens []ScreenIdentity
	byKey   map[string]ScreenIdentity
	byID    map[string]ScreenIdentity
}

func NewIdentityMap(screens []ScreenIdentity) (*IdentityMap, error) {
	m := &IdentityMap{
		byKey: make(map[string]ScreenIdentity, len(screens)),
		byID:  make(map[string]ScreenIdentity, len(screens)),
	}
	for _, s := range screens {
		s.Key = strings.TrimSpace(s.Key)
		if s.Key == "" {
			return nil, fmt.Errorf("screen identity: empty key")
		}
		if _, dup := m.byKey[s.Key]; dup {
			return nil, fmt.Errorf("screen identity: duplicate key %q", s.Key)
		}
		if !s.Optional && s.ID == "" {
			return nil, fmt.Errorf("screen identity %q: core screens need an id", s.Key)
		}
		if s.ID != "" {
			if other, dup := m.byID[s.ID]; dup {
				return nil, fmt.Errorf("screen identity: id %q shared by %q and %q", s.ID, other.Key, s.Key)
			}
		}

		derived := deriveIdentity(s.Key)
		if s.Type == "" {
			s.Type = derived.Type
		}
		if s.Orientation == "" {
			s.Orientation = derived.Orientation
		}
		if s.Name == "" {
			s.Name = derived.Name
		}
		if s.Type != TypeVertical && s.Type != TypeHorizontal {
			return nil, fmt.Errorf("screen identity %q: unknown type %q", s.Key, s.Type)
		}
		if s.Orientation != OrientationPortrait && s.Orientation != OrientationLandscape {
			return nil, fmt.Errorf("screen identity %q: unknown orientation %q", s.Key, s.Orientation)
		}

		m.screens = append(m.screens, s)
		m.byKey[s.Key] = s
		if s.ID != "" {
			m.byID[s.ID] = s
		}
	}
	return m, nil
}

// LoadIdentityMap reads a YAML file of the form `screens: [{key, id, ...}]`.
func LoadIdentityMap(path string) (*IdentityMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read screens file: %w", err)
	}
	var doc struct {
		Screens []ScreenIdentity `yaml:"screens"`
	}
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse screens file: %w", err)
	}
	return NewIdentityMap(doc.Screens)
}

// DefaultIdentityMap is the stock booth layout.
func DefaultIdentityMap() *IdentityMap {
	m, err := NewIdentityMap([]ScreenIdentity{
		{Key: "horizontal1", ID: "3f0c9a52-1d7e-4b8a-9c61-5e2f7a0b4d11", Name: "Horizontal Screen 1", Type: TypeHorizontal, Orientation: OrientationLandscape},
		{Key: "vertical1", ID: "8a41d6e3-52b0-4f9c-a7d2-0c6e1b3f9a22", Name: "Vertical Screen 1", Type: TypeVertical, Orientation: OrientationPortrait},
		{Key: "vertical2", ID: "c27e5b90-8f14-4d3a-b605-9a1d4e7c2b33", Name: "Vertical Screen 2", Type: TypeVertical, Orientation: OrientationPortrait},
		{Key: "vertical3", ID: "e95d1c48-3a6f-4e27-8b19-7d0a5c2e6f44", Name: "Vertical Screen 3", Type: TypeVertical, Orientation: OrientationPortrait},
		{Key: "horizontal2", Name: "Horizontal Screen 2", Type: TypeHorizontal, Orientation: OrientationLandscape, Optional: true},
		{Key: "vertical4", Name: "Vertical Screen 4", Type: TypeVertical, Orientation: OrientationPortrait, Optional: true},
	})
	if err != nil {
		panic(err)
	}
	return m
}

func (m *IdentityMap) Lookup(key string) (ScreenIdentity, bool) {
	s, ok := m.byKey[key]
	return s, ok
}

func (m *IdentityMap) LookupID(id string) (ScreenIdentity, bool) {
	s, ok := m.byID[id]
	return s, ok
}

func (m *IdentityMap) OptionalKeys() []string {
	var keys []string
	for _, s := range m.screens {
		if s.Optional {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

func (m *IdentityMap) Screens() []ScreenIdentity {
	return append([]ScreenIdentity(nil), m.screens...)
}

type screenLister interface {
	ListByScreenKeys(ctx context.Context, keys []string) ([]ScreenConfigRow, error)
}

// IdentityResolver resolves core screens from the static map and optional
// screens from a lazily filled discovery cache.
type IdentityResolver struct {
	identities *IdentityMap
	store      screenLister
	log        logger.Logger

	group singleflight.Group

	mu         sync.RWMutex
	discovered map[string]string
	done       bool
}

func NewIdentityResolver(identities *IdentityMap, store screenLister, log logger.Logger) *IdentityResolver {
	if identities == nil {
		identities = DefaultIdentityMap()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &IdentityResolver{
		identities: identities,
		store:      store,
		log:        log,
		discovered: map[string]string{},
	}
}

// Resolve never fails. An optional screen that has not been discovered yet
// resolves to its own key.
func (r *IdentityResolver) Resolve(ctx context.Context, screenKey string) string {
	ident, known := r.identities.Lookup(screenKey)
	if known && !ident.Optional {
		return ident.ID
	}
	if id, ok := r.cached(screenKey); ok {
		return id
	}
	if !known || r.discoveryDone() {
		return screenKey
	}
	if err := r.Discover(ctx); err != nil {
		r.log.Warn("screen discovery failed, using key as identity", "screen_key", screenKey, "error", err)
		return screenKey
	}
	if id, ok := r.cached(screenKey); ok {
		return id
	}
	return screenKey
}

// Discover reads the stored rows of every optional screen once. Overlapping
// callers share a single read; a failed read is retried on the next call.
func (r *IdentityResolver) Discover(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	_, err, _ := r.group.Do("discover", func() (any, error) {
		keys := r.identities.OptionalKeys()
		if len(keys) == 0 {
			r.markDone(nil)
			return nil, nil
		}
		rows, err := r.store.ListByScreenKeys(ctx, keys)
		if err != nil {
			return nil, err
		}
		r.markDone(rows)
		r.log.Debug("screen discovery finished", "optional", len(keys), "found", len(rows))
		return nil, nil
	})
	return err
}

func (r *IdentityResolver) markDone(rows []ScreenConfigRow) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range rows {
		if _, exists := r.discovered[row.ScreenKey]; !exists {
			r.discovered[row.ScreenKey] = row.ID
		}
	}
	r.done = true
}

func (r *IdentityResolver) cached(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.discovered[key]
	return id, ok
}

func (r *IdentityResolver) discoveryDone() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.done
}

func (r *IdentityResolver) DisplayName(id, screenKey string) string {
	if s, ok := r.identities.LookupID(id); ok {
		return s.Name
	}
	if discoveredID, ok := r.cached(screenKey); ok && discoveredID == id {
		if s, ok := r.identities.Lookup(screenKey); ok {
			return s.Name
		}
	}
	return GenericName(screenKey)
}

func (r *IdentityResolver) Identity(screenKey string) ScreenIdentity {
	if s, ok := r.identities.Lookup(screenKey); ok {
		return s
	}
	return deriveIdentity(screenKey)
}

func (r *IdentityResolver) Screens() []ScreenIdentity {
	screens := r.identities.Screens()
	for i, s := range screens {
		if s.ID == "" {
			if id, ok := r.cached(s.Key); ok {
				screens[i].ID = id
			}
		}
	}
	return screens
}

func deriveIdentity(key string) ScreenIdentity {
	ident := ScreenIdentity{
		Key:         key,
		Name:        GenericName(key),
		Type:        TypeVertical,
		Orientation: OrientationPortrait,
	}
	if strings.HasPrefix(strings.ToLower(key), TypeHorizontal) {
		ident.Type = TypeHorizontal
		ident.Orientation = OrientationLandscape
	}
	return ident
}

// GenericName turns a screen key into a readable label: "vertical4" becomes
// "Vertical 4" and "lobby_left" becomes "Lobby Left".
func GenericName(key string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			cur[0] = unicode.ToUpper(cur[0])
			words = append(words, string(cur))
			cur = nil
		}
	}
	for _, r := range strings.TrimSpace(key) {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case len(cur) > 0 && unicode.IsDigit(r) != unicode.IsDigit(cur[len(cur)-1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	if len(words) == 0 {
		return "Screen"
	}
	return strings.Join(words, " ")
}
