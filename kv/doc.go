// Package kv provides the persistent string key-value layer under the
// secure credential store and the domain cache.
//
// # Write modes
//
// [Store.Set] is a synchronous commit: it does not return until the backend
// has acknowledged the write, so callers can detect write failure. [Store.SetDeferred]
// is a best-effort asynchronous apply: the write is queued to a background
// worker and may be dropped under pressure. Credential fallback writes use
// Set; primary-path writes use SetDeferred.
//
// # Implementations
//
// [RedisStore] is the production backend. [MemoryStore] serves tests and
// hosts without a reachable Redis.
//
// # What this package must NOT do
//
//   - Interpret values (ciphertext, JSON envelopes) — that belongs to
//     securestore and cache.
//   - Import any other sessionvault package besides internal/errkind.
package kv
