package securestore

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

const (
	fallbackKeyIterations = 4096
	fallbackKeyLength     = 32
)

// FallbackStore obfuscates tokens with a repeating XOR keystream derived via
// PBKDF2. It is deliberately a separate type so no caller can mistake it for
// encryption: anyone holding the install secret (or enough ciphertext)
// recovers the plaintext.
type FallbackStore struct {
	keystream []byte
}

// NewFallbackStore derives the obfuscation keystream from a per-install
// secret and salt.
func NewFallbackStore(secret, salt []byte) *FallbackStore {
	return &FallbackStore{
		keystream: pbkdf2.Key(secret, salt, fallbackKeyIterations, fallbackKeyLength, sha256.New),
	}
}

func (f *FallbackStore) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ f.keystream[i%len(f.keystream)]
	}
	return out
}

// Obfuscate encodes a token for fallback storage.
func (f *FallbackStore) Obfuscate(token string) string {
	return base64.StdEncoding.EncodeToString(f.xor([]byte(token)))
}

// Deobfuscate reverses [FallbackStore.Obfuscate]. Returns false on a payload
// that is not valid base64.
func (f *FallbackStore) Deobfuscate(payload string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	return string(f.xor(raw)), true
}
