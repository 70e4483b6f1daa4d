package securestore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrKeychainUnavailable is returned when no usable encryption key exists.
var ErrKeychainUnavailable = errors.New("keychain unavailable")

// Keychain supplies the AEAD used to seal stored tokens. Implementations
// wrap whatever the host platform offers (OS keystore, HSM, env-injected
// key) and may fail at any call.
type Keychain interface {
	AEAD() (cipher.AEAD, error)
}

// StaticKeychain is a [Keychain] over fixed 256-bit key material. Hosts with
// an OS keystore supply their own Keychain; StaticKeychain covers injected
// keys and tests.
type StaticKeychain struct {
	key []byte
}

// NewStaticKeychain creates a keychain from a 32-byte key.
func NewStaticKeychain(key []byte) (*StaticKeychain, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be 32 bytes, got %d", ErrKeychainUnavailable, len(key))
	}
	kc := &StaticKeychain{key: make([]byte, 32)}
	copy(kc.key, key)
	return kc, nil
}

// GenerateStaticKeychain creates a keychain with a fresh random key. The key
// lives only in process memory; sessions sealed under it do not survive a
// restart.
func GenerateStaticKeychain() (*StaticKeychain, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	return &StaticKeychain{key: key}, nil
}

// AEAD returns an AES-256-GCM instance over the key material.
func (k *StaticKeychain) AEAD() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeychainUnavailable, err)
	}
	return gcm, nil
}

// UnavailableKeychain always fails. It forces the fallback path in tests and
// on hosts known to lack secure key storage.
type UnavailableKeychain struct{}

// AEAD always returns [ErrKeychainUnavailable].
func (UnavailableKeychain) AEAD() (cipher.AEAD, error) {
	return nil, ErrKeychainUnavailable
}
