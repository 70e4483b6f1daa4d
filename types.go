package sessionvault

import (
	"context"
)

// Identity is the provider's view of the signed-in user.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
	// Provider is the identity-provider tag (see the session package
	// constants for the recognized set).
	Provider string
}

// IdentityProvider is the remote identity service. Implementations wrap a
// vendor SDK and MUST tag transient failures with the errkind network or
// timeout kinds — the Manager decides retries from error kinds, never from
// message text.
type IdentityProvider interface {
	// CurrentUser returns the signed-in identity, or ErrNoIdentity.
	CurrentUser(ctx context.Context) (*Identity, error)
	// IDToken returns a bearer credential for the signed-in user,
	// minting a fresh one when forceRefresh is set.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)
}

// ValidationState is the outcome category of a session validity check.
type ValidationState uint8

const (
	// StateNoSession: nothing persisted.
	StateNoSession ValidationState = iota
	// StateCachedValid: answered from the verification-result cache.
	StateCachedValid
	// StateLocallyExpired: the persisted token was already expired and
	// refresh did not rescue it.
	StateLocallyExpired
	// StateRemoteVerified: the provider confirmed the session.
	StateRemoteVerified
	// StateOfflineValid: the provider was unreachable but the local token
	// is unexpired, so access is provisionally granted.
	StateOfflineValid
	// StateDenied: the provider rejected the session.
	StateDenied
	// StateCorrupted: the persisted record failed integrity checks.
	StateCorrupted
	// StateRefreshed: the session was proactively refreshed during the
	// check.
	StateRefreshed
)

// String returns the wire-stable name used in audit events.
func (s ValidationState) String() string {
	switch s {
	case StateNoSession:
		return "no_session"
	case StateCachedValid:
		return "cached_valid"
	case StateLocallyExpired:
		return "locally_expired"
	case StateRemoteVerified:
		return "remote_verified"
	case StateOfflineValid:
		return "offline_valid"
	case StateDenied:
		return "denied"
	case StateCorrupted:
		return "corrupted"
	case StateRefreshed:
		return "refreshed"
	default:
		return "unknown"
	}
}

// ValidationResult reports how a validity check was resolved.
type ValidationResult struct {
	Valid bool
	State ValidationState
}
