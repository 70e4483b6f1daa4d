// Package cache provides a generic read-through TTL cache for domain
// records, layered memory-first over the persistent kv store.
//
// # Semantics
//
// This is a stale-tolerant cache, not a coherence protocol: the only
// consistency guarantee against the remote source of truth is TTL expiry.
// Entries are tagged with their store time and TTL; reads past the deadline
// are misses and evict the entry. The memory map is capacity-bound with
// oldest-entry eviction, and the persistent tier is trimmed the same way on
// write. Oversized payloads stay memory-only.
//
// # What this package must NOT do
//
//   - Hold session or credential material (that belongs to securestore).
//   - Talk to the remote record store — callers populate on miss.
package cache
