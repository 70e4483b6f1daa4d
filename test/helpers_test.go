//go:build integration
// +build integration

package test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	sessionvault "github.com/kestrelhq/sessionvault"
	"github.com/kestrelhq/sessionvault/securestore"
	"github.com/kestrelhq/sessionvault/session"
)

type stubProvider struct {
	tokens atomic.Uint64
}

func (p *stubProvider) CurrentUser(context.Context) (*sessionvault.Identity, error) {
	return &sessionvault.Identity{
		UserID:   "integration-user",
		Email:    "it@example.com",
		Provider: session.ProviderGoogle,
	}, nil
}

func (p *stubProvider) IDToken(context.Context, bool) (string, error) {
	return fmt.Sprintf("token-%d", p.tokens.Add(1)), nil
}

func newIntegrationRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func newIntegrationManager(t *testing.T, rdb *redis.Client, kc *securestore.StaticKeychain) *sessionvault.Manager {
	t.Helper()

	m, err := sessionvault.New().
		WithRedis(rdb).
		WithKeychain(kc).
		WithProvider(&stubProvider{}).
		Build()
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}
