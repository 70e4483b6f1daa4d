// Package middleware exposes HTTP adapters built on top of Manager
// validation: inbound guards for handlers that require a usable session and
// an outbound transport that attaches the stored credential.
//
// # Guards
//
//   - [RequireSession] — full validity check per request.
//   - [RequireSessionFast] — fast-mode check, preferring cached verdicts.
//
// Each guard calls Manager.Validate and injects the result into the request
// context.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Manager calls. It does NOT
// implement validation logic itself — all decisions are delegated to
// Manager.Validate.
//
// # What this package must NOT do
//
//   - Read or parse credentials directly (the Manager handles storage).
//   - Make validity decisions beyond pass/reject from Manager.Validate.
package middleware
