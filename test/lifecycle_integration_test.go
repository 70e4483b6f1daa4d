//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	sessionvault "github.com/kestrelhq/sessionvault"
	"github.com/kestrelhq/sessionvault/metrics/export/prometheus"
	"github.com/kestrelhq/sessionvault/securestore"
)

func TestLifecycleOverRedis(t *testing.T) {
	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	kc, err := securestore.GenerateStaticKeychain()
	if err != nil {
		t.Fatalf("generate keychain: %v", err)
	}

	m := newIntegrationManager(t, rdb, kc)
	ctx := context.Background()

	if err := m.SaveSession(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Deferred writes land asynchronously.
	waitForToken(t, m, true)

	if !m.IsSessionValid(ctx, false) {
		t.Fatal("expected valid session")
	}
	if err := m.RefreshSession(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := m.ClearSession(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	waitForToken(t, m, false)
}

func TestSessionSurvivesRestart(t *testing.T) {
	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	// Same key material across instances, as a platform keychain provides.
	kc, err := securestore.GenerateStaticKeychain()
	if err != nil {
		t.Fatalf("generate keychain: %v", err)
	}

	first := newIntegrationManager(t, rdb, kc)
	if err := first.SaveSession(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	waitForToken(t, first, true)
	first.Close()

	second := newIntegrationManager(t, rdb, kc)
	data, err := second.StoredSession(context.Background(), false)
	if err != nil {
		t.Fatalf("read after restart: %v", err)
	}
	if data.UserID != "integration-user" {
		t.Fatalf("unexpected session after restart: %+v", data)
	}
}

func TestForeignKeyMaterialReadsAsMiss(t *testing.T) {
	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	firstKC, err := securestore.GenerateStaticKeychain()
	if err != nil {
		t.Fatalf("generate keychain: %v", err)
	}
	first := newIntegrationManager(t, rdb, firstKC)
	if err := first.SaveSession(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	waitForToken(t, first, true)
	first.Close()

	otherKC, err := securestore.GenerateStaticKeychain()
	if err != nil {
		t.Fatalf("generate keychain: %v", err)
	}
	second := newIntegrationManager(t, rdb, otherKC)

	_, err = second.StoredSession(context.Background(), false)
	if !errors.Is(err, sessionvault.ErrNoSession) {
		t.Fatalf("undecryptable record must read as a miss, got %v", err)
	}
}

func TestPrometheusRenderOverRedis(t *testing.T) {
	rdb, cleanup := newIntegrationRedis(t)
	defer cleanup()

	kc, err := securestore.GenerateStaticKeychain()
	if err != nil {
		t.Fatalf("generate keychain: %v", err)
	}
	m := newIntegrationManager(t, rdb, kc)

	if err := m.SaveSession(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}
	m.IsSessionValid(context.Background(), false)

	out := prometheus.NewPrometheusExporter(m).Render()
	if !strings.Contains(out, "sessionvault_save_success_total 1") {
		t.Fatalf("missing save counter in exposition:\n%s", out)
	}
}

func waitForToken(t *testing.T, m *sessionvault.Manager, want bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		exists, err := m.TokenExists(context.Background())
		if err != nil {
			t.Fatalf("token exists: %v", err)
		}
		if exists == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("token existence never reached %v", want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
