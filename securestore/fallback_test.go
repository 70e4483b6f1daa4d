package securestore

import (
	"context"
	"strings"
	"testing"

	"github.com/kestrelhq/sessionvault/kv"
)

func TestFallbackFidelity(t *testing.T) {
	fb := NewFallbackStore([]byte("install-secret"), []byte("salt"))

	for _, token := range []string{
		"",
		"plain-token",
		string([]byte{0x00, 0x01, 0xfe, 0xff}),
		strings.Repeat("x", 1024),
	} {
		got, ok := fb.Deobfuscate(fb.Obfuscate(token))
		if !ok || got != token {
			t.Fatalf("fallback round trip mismatch for %q: got %q (ok=%v)", token, got, ok)
		}
	}
}

func TestFallbackOutputDiffersFromPlaintext(t *testing.T) {
	fb := NewFallbackStore([]byte("install-secret"), []byte("salt"))
	token := "bearer-token-value"

	payload := fb.Obfuscate(token)
	if strings.Contains(payload, token) {
		t.Fatal("obfuscated payload must not contain the plaintext")
	}
}

func TestUnavailableKeychainEngagesFallback(t *testing.T) {
	mem := kv.NewMemoryStore()
	store := NewStore(mem, UnavailableKeychain{}, NewFallbackStore([]byte("s"), []byte("n")))
	ctx := context.Background()

	if store.Healthy() {
		t.Fatal("expected unhealthy store when keychain is unavailable")
	}

	if err := store.StoreToken(ctx, "tok", "secret"); err != nil {
		t.Fatalf("fallback store: %v", err)
	}

	raw, ok, _ := mem.Get(ctx, "tok")
	if !ok {
		t.Fatal("expected fallback record present")
	}
	if !strings.HasPrefix(raw, markerObfuscated) {
		t.Fatalf("expected fallback marker on record, got %q", raw)
	}

	got, ok, err := store.RetrieveToken(ctx, "tok")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !ok || got != "secret" {
		t.Fatalf("fallback retrieve mismatch: %q (ok=%v)", got, ok)
	}
}

func TestFallbackUnavailableWithoutFallbackStore(t *testing.T) {
	store := NewStore(kv.NewMemoryStore(), UnavailableKeychain{}, nil)
	if err := store.StoreToken(context.Background(), "tok", "secret"); err == nil {
		t.Fatal("expected error when neither keychain nor fallback is usable")
	}
}

func TestSealedRecordReadableAcrossStoreInstancesSameKey(t *testing.T) {
	mem := kv.NewMemoryStore()
	kc := testKeychain(t)
	ctx := context.Background()

	first := NewStore(mem, kc, nil)
	if err := first.StoreToken(ctx, "tok", "persisted"); err != nil {
		t.Fatalf("store: %v", err)
	}

	second := NewStore(mem, kc, nil)
	got, ok, err := second.RetrieveToken(ctx, "tok")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if !ok || got != "persisted" {
		t.Fatalf("expected record readable under same key, got %q (ok=%v)", got, ok)
	}
}
