// Package sessionvault provides resilient client-session and credential
// caching over a remote identity provider.
//
// # Architecture
//
// The [Manager] is the orchestrator: it persists session snapshots through
// [securestore] (sealed, or obfuscated on degraded hosts), keeps a short-TTL
// in-memory snapshot, and verifies or refreshes credentials against an
// [IdentityProvider] with a bounded retry budget. Domain records are cached
// separately by the generic [cache] package. Managers are constructed
// explicitly via [Builder] and passed by reference from the application's
// composition root; there is no package-level singleton.
//
// # Failure policy
//
// Storage and data-integrity failures are recovered locally (fallback
// storage, corruption cleanup, miss semantics) and never panic. Transient
// provider failures are retried with linear backoff and, once exhausted,
// degrade to offline-valid access while the locally cached token is
// unexpired. Explicit provider rejection invalidates the session
// immediately.
package sessionvault
