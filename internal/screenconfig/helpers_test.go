package screenconfig

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq uint64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	id := atomic.AddUint64(&testDBSeq, 1)
	dsn := fmt.Sprintf("file:screenconfig_test_%d?mode=memory&cache=shared", id)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(&ScreenConfigRow{}, &EventScreen{}); err != nil {
		t.Fatalf("migrate db: %v", err)
	}

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func breakDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	_ = sqlDB.Close()
}

// memStore is an in-memory Store that counts writes and can be told to fail.
type memStore struct {
	mu    sync.Mutex
	rows  map[string]ScreenConfigRow
	order []string
	links map[[2]string]EventScreen

	upserts   int
	listCalls int

	readErr   error
	upsertErr error
	listErr   error
	linkErr   error
}

func newMemStore() *memStore {
	return &memStore{
		rows:  map[string]ScreenConfigRow{},
		links: map[[2]string]EventScreen{},
	}
}

func (s *memStore) Read(ctx context.Context, id string) (*ScreenConfigRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (s *memStore) Upsert(ctx context.Context, row *ScreenConfigRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if _, ok := s.rows[row.ID]; !ok {
		s.order = append(s.order, row.ID)
	}
	s.rows[row.ID] = *row
	s.upserts++
	return nil
}

func (s *memStore) ListByScreenKeys(ctx context.Context, keys []string) ([]ScreenConfigRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	want := map[string]bool{}
	for _, k := range keys {
		want[k] = true
	}
	var out []ScreenConfigRow
	for _, id := range s.order {
		if row := s.rows[id]; want[row.ScreenKey] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memStore) List(ctx context.Context) ([]ScreenConfigRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]ScreenConfigRow, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out, nil
}

func (s *memStore) UpsertEventScreen(ctx context.Context, link *EventScreen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.linkErr != nil {
		return s.linkErr
	}
	k := [2]string{link.EventID, link.ScreenID}
	if prev, ok := s.links[k]; ok {
		prev.LastActiveAt = link.LastActiveAt
		s.links[k] = prev
		return nil
	}
	s.links[k] = *link
	return nil
}

func (s *memStore) upsertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upserts
}

func (s *memStore) row(id string) (ScreenConfigRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r, ok
}

// testClock advances one second on every reading.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// stubResolver resolves keys from a mutable table and passes unknown keys through.
type stubResolver struct {
	mu  sync.Mutex
	ids map[string]string
}

func newStubResolver(ids map[string]string) *stubResolver {
	if ids == nil {
		ids = map[string]string{}
	}
	return &stubResolver{ids: ids}
}

func (r *stubResolver) set(key, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids[key] = id
}

func (r *stubResolver) Resolve(ctx context.Context, key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[key]; ok {
		return id
	}
	return key
}

func (r *stubResolver) DisplayName(id, key string) string  { return GenericName(key) }
func (r *stubResolver) Identity(key string) ScreenIdentity { return deriveIdentity(key) }
func (r *stubResolver) Screens() []ScreenIdentity          { return nil }

type recordingNotifier struct {
	mu    sync.Mutex
	saved []*ScreenConfig
	err   error
}

func (n *recordingNotifier) ConfigSaved(ctx context.Context, cfg *ScreenConfig) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved = append(n.saved, cfg)
	return n.err
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.saved)
}

type fixedEvents struct {
	id  string
	ok  bool
	err error
}

func (f fixedEvents) ActiveEventID(ctx context.Context) (string, bool, error) {
	return f.id, f.ok, f.err
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", d)
}
