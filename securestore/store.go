package securestore

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/kestrelhq/sessionvault/kv"
)

const (
	markerSealed     = "enc:v1:"
	markerObfuscated = "obf:v1:"
)

// Store persists tokens through the kv layer, sealed when a working keychain
// exists and obfuscated otherwise.
type Store struct {
	kv       kv.Store
	keychain Keychain
	fallback *FallbackStore

	// healthy is fixed at construction by the self-test; the keychain is
	// not re-probed per call.
	healthy bool
}

// NewStore probes the keychain with a round-trip self-test and returns a
// store pinned to the primary or fallback path. fallback may be nil when the
// caller wants hard failure instead of degraded storage.
func NewStore(store kv.Store, keychain Keychain, fallback *FallbackStore) *Store {
	s := &Store{
		kv:       store,
		keychain: keychain,
		fallback: fallback,
	}
	s.healthy = s.selfTest()
	if !s.healthy {
		log.Print("sessionvault: keychain self-test failed, using fallback token storage")
	}
	return s
}

// Healthy reports whether the primary sealed path is in use.
func (s *Store) Healthy() bool {
	return s.healthy
}

// selfTest seals and opens a random probe and compares the result. A
// keychain that advertises capability but corrupts data fails here.
func (s *Store) selfTest() bool {
	if s.keychain == nil {
		return false
	}
	aead, err := s.keychain.AEAD()
	if err != nil {
		return false
	}

	probe := uuid.NewString()
	sealed, err := seal(aead, probe)
	if err != nil {
		return false
	}
	opened, ok := open(aead, sealed)
	return ok && opened == probe
}

func seal(aead cipher.AEAD, plaintext string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

func open(aead cipher.AEAD, payload string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	if len(raw) < aead.NonceSize() {
		return "", false
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", false
	}
	return string(plaintext), true
}

// StoreToken persists token under key. Primary-path writes are deferred
// best-effort applies; fallback writes commit synchronously so a dead store
// is detected.
func (s *Store) StoreToken(ctx context.Context, key, token string) error {
	if s.healthy {
		aead, err := s.keychain.AEAD()
		if err != nil {
			return err
		}
		sealed, err := seal(aead, token)
		if err != nil {
			return err
		}
		s.kv.SetDeferred(key, markerSealed+sealed)
		return nil
	}

	if s.fallback == nil {
		return ErrKeychainUnavailable
	}
	return s.kv.Set(ctx, key, markerObfuscated+s.fallback.Obfuscate(token))
}

// RetrieveToken returns the stored token. A missing key, tampered payload,
// or cipher failure is a miss (false), never a panic; only kv-layer
// unavailability is an error.
func (s *Store) RetrieveToken(ctx context.Context, key string) (string, bool, error) {
	value, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	switch {
	case strings.HasPrefix(value, markerSealed):
		if s.keychain == nil {
			return "", false, nil
		}
		aead, aerr := s.keychain.AEAD()
		if aerr != nil {
			log.Print("sessionvault: keychain unavailable during token read")
			return "", false, nil
		}
		token, opened := open(aead, value[len(markerSealed):])
		if !opened {
			log.Print("sessionvault: sealed token failed to open, treating as missing")
			return "", false, nil
		}
		return token, true, nil

	case strings.HasPrefix(value, markerObfuscated):
		if s.fallback == nil {
			return "", false, nil
		}
		token, opened := s.fallback.Deobfuscate(value[len(markerObfuscated):])
		if !opened {
			log.Print("sessionvault: fallback token payload malformed, treating as missing")
			return "", false, nil
		}
		return token, true, nil

	default:
		// Unmarked records predate this store or were written by
		// something else. Refuse to guess.
		return "", false, nil
	}
}

// DeleteToken removes the record. Idempotent.
func (s *Store) DeleteToken(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}

// TokenExists reports whether a record is present, without decrypting it.
func (s *Store) TokenExists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.kv.Get(ctx, key)
	return ok, err
}
