// Package retry provides the bounded linear-backoff retry loop used for
// identity-provider calls.
//
// # Budget semantics
//
// An operation gets a fixed attempt budget. After a failed attempt n the
// loop sleeps n × base before attempt n+1 (linear, not exponential doubling).
// Only errors classified as transient by errkind are retried; everything
// else aborts the loop immediately with the original error.
//
// # What this package must NOT do
//
//   - Retry non-transient errors.
//   - Sleep past context cancellation.
package retry
