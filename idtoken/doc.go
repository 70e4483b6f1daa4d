// Package idtoken extracts scheduling claims from identity-provider bearer
// tokens.
//
// # Trust model
//
// Tokens are parsed WITHOUT signature verification. The provider verifies
// tokens server-side on every call; this package only reads the expiry (and
// profile hints) so the client can schedule proactive refresh. Nothing read
// here grants access, so an attacker who forges claims gains nothing beyond
// a mistimed refresh.
//
// # Opaque tokens
//
// Providers that issue opaque (non-JWT) tokens are supported: [Peek] returns
// an error and callers fall back to the configured fixed token lifetime.
package idtoken
