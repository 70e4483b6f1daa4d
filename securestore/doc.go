// Package securestore provides confidentiality-protected token storage over
// the kv layer, with a degraded fallback when no working keychain exists.
//
// # Primary path
//
// Values are sealed with AES-256-GCM (random 96-bit nonce per call, 128-bit
// tag) using a key obtained from a [Keychain]. The keychain is probed with an
// encrypt/decrypt round-trip self-test at construction; capability flags are
// never trusted. Records are stored as enc:v1:base64(nonce‖sealed) and
// written with the kv layer's deferred apply.
//
// # Fallback path
//
// When the self-test fails the store degrades to [FallbackStore]: XOR
// obfuscation under a PBKDF2-derived keystream, marked obf:v1 so reads know
// to deobfuscate. This is NOT confidentiality protection — it only keeps
// tokens out of casual plaintext greps. Callers must treat fallback records
// as low-assurance. Fallback writes use the kv layer's synchronous commit so
// write failure is detectable.
//
// # Failure policy
//
// Retrieval never panics: absent keys, tampered ciphertext, and cipher
// errors all surface as a miss. Only kv-layer unavailability is reported as
// an error.
package securestore
