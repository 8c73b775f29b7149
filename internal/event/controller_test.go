package event

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"photobooth-admin-api/internal/screenconfig"
)

type mockEventService struct {
	listFn       func(ctx context.Context) ([]Event, error)
	createFn     func(ctx context.Context, input CreateEventInput) (*Event, error)
	activateFn   func(ctx context.Context, id string) (*Event, error)
	deactivateFn func(ctx context.Context) error
	screensFn    func(ctx context.Context, id string) ([]screenconfig.EventScreen, error)
}

func (m *mockEventService) List(ctx context.Context) ([]Event, error) { return m.listFn(ctx) }
func (m *mockEventService) Create(ctx context.Context, input CreateEventInput) (*Event, error) {
	return m.createFn(ctx, input)
}
func (m *mockEventService) Activate(ctx context.Context, id string) (*Event, error) {
	return m.activateFn(ctx, id)
}
func (m *mockEventService) Deactivate(ctx context.Context) error { return m.deactivateFn(ctx) }
func (m *mockEventService) Screens(ctx context.Context, id string) ([]screenconfig.EventScreen, error) {
	return m.screensFn(ctx, id)
}

func pass(c *gin.Context) { c.Next() }

func deny(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
}

func setupRouter(svc EventServiceAPI, admin gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc, pass, admin)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestListEvents(t *testing.T) {
	svc := &mockEventService{listFn: func(ctx context.Context) ([]Event, error) {
		return []Event{{ID: "e1", Name: "Gala"}}, nil
	}}
	w := do(setupRouter(svc, pass), http.MethodGet, "/api/events", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"Gala"`) {
		t.Fatalf("unexpected %d %s", w.Code, w.Body.String())
	}

	svc.listFn = func(ctx context.Context) ([]Event, error) { return nil, errors.New("db") }
	if w := do(setupRouter(svc, pass), http.MethodGet, "/api/events", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCreateEvent(t *testing.T) {
	var got CreateEventInput
	svc := &mockEventService{createFn: func(ctx context.Context, input CreateEventInput) (*Event, error) {
		got = input
		return &Event{ID: "e1", Name: input.Name, IsActive: input.Activate}, nil
	}}
	r := setupRouter(svc, pass)

	w := do(r, http.MethodPost, "/api/events", `{"name":"Gala","activate":true}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if got.Name != "Gala" || !got.Activate {
		t.Fatalf("service got %#v", got)
	}

	if w := do(r, http.MethodPost, "/api/events", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: expected 400, got %d", w.Code)
	}

	svc.createFn = func(ctx context.Context, input CreateEventInput) (*Event, error) { return nil, ErrNameRequired }
	if w := do(r, http.MethodPost, "/api/events", `{"name":" "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank name: expected 400, got %d", w.Code)
	}
}

func TestCreateEvent_RequiresAdmin(t *testing.T) {
	svc := &mockEventService{createFn: func(ctx context.Context, input CreateEventInput) (*Event, error) {
		t.Fatalf("service should not be called")
		return nil, nil
	}}
	if w := do(setupRouter(svc, deny), http.MethodPost, "/api/events", `{"name":"Gala"}`); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestActivateEvent(t *testing.T) {
	svc := &mockEventService{activateFn: func(ctx context.Context, id string) (*Event, error) {
		if id == "missing" {
			return nil, ErrEventNotFound
		}
		return &Event{ID: id, IsActive: true}, nil
	}}
	r := setupRouter(svc, pass)

	if w := do(r, http.MethodPost, "/api/events/e1/activate", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/api/events/missing/activate", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeactivateEvents(t *testing.T) {
	called := false
	svc := &mockEventService{deactivateFn: func(ctx context.Context) error { called = true; return nil }}

	if w := do(setupRouter(svc, pass), http.MethodDelete, "/api/events/active", ""); w.Code != http.StatusNoContent || !called {
		t.Fatalf("expected 204 and call, got %d %v", w.Code, called)
	}
}

func TestListEventScreens(t *testing.T) {
	svc := &mockEventService{screensFn: func(ctx context.Context, id string) ([]screenconfig.EventScreen, error) {
		if id == "missing" {
			return nil, ErrEventNotFound
		}
		return []screenconfig.EventScreen{{EventID: id, ScreenID: "s1"}}, nil
	}}
	r := setupRouter(svc, pass)

	w := do(r, http.MethodGet, "/api/events/e1/screens", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"screen_id":"s1"`) {
		t.Fatalf("unexpected %d %s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodGet, "/api/events/missing/screens", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
