// Package errkind provides the internal error-kind taxonomy used to decide
// whether a failed provider or storage call may be retried.
//
// # Classification
//
// Errors produced inside this module are tagged with an explicit [Kind] at
// the point of failure. Foreign errors (provider SDKs, net/http) are
// classified structurally via [Classify]: net.Error, context deadlines, and
// DNS failures map to the network/timeout kinds. Error message text is never
// inspected.
//
// # What this package must NOT do
//
//   - Import any other sessionvault package (no upward imports).
//   - Match on error strings.
package errkind
