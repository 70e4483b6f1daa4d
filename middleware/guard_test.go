package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sessionvault "github.com/kestrelhq/sessionvault"
	"github.com/kestrelhq/sessionvault/kv"
	"github.com/kestrelhq/sessionvault/session"
)

type staticProvider struct {
	identity *sessionvault.Identity
	token    string
}

func (p *staticProvider) CurrentUser(context.Context) (*sessionvault.Identity, error) {
	return p.identity, nil
}

func (p *staticProvider) IDToken(context.Context, bool) (string, error) {
	return p.token, nil
}

func newTestManager(t *testing.T) *sessionvault.Manager {
	t.Helper()
	provider := &staticProvider{
		identity: &sessionvault.Identity{
			UserID:   "user-123456",
			Provider: session.ProviderGoogle,
		},
		token: "bearer-token",
	}
	m, err := sessionvault.New().
		WithStore(kv.NewMemoryStore()).
		WithProvider(provider).
		Build()
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func TestGuardRejectsWithoutSession(t *testing.T) {
	m := newTestManager(t)

	handler := RequireSession(m)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run without a session")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGuardPassesValidSession(t *testing.T) {
	m := newTestManager(t)
	if err := m.SaveSession(context.Background()); err != nil {
		t.Fatalf("save session: %v", err)
	}

	var seen sessionvault.ValidationResult
	handler := RequireSession(m)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		res, ok := ValidationFromContext(r.Context())
		if !ok {
			t.Fatal("validation result missing from context")
		}
		seen = res
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !seen.Valid {
		t.Fatalf("expected valid result in context, got %+v", seen)
	}
}

func TestGuardNilManager(t *testing.T) {
	handler := RequireSessionFast(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestTransportAttachesBearerToken(t *testing.T) {
	m := newTestManager(t)
	if err := m.SaveSession(context.Background()); err != nil {
		t.Fatalf("save session: %v", err)
	}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-token" {
			t.Errorf("unexpected authorization header %q", got)
		}
	}))
	defer backend.Close()

	client := &http.Client{Transport: &Transport{Manager: m}}
	resp, err := client.Get(backend.URL)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
}

func TestTransportFailsWithoutSession(t *testing.T) {
	m := newTestManager(t)

	client := &http.Client{Transport: &Transport{Manager: m}}
	if _, err := client.Get("http://127.0.0.1:0"); err == nil {
		t.Fatal("expected request to fail without a session")
	}
}
