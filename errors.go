package sessionvault

import "errors"

var (
	// ErrManagerNotReady is returned when a Manager is used before Build.
	ErrManagerNotReady = errors.New("manager not ready")
	// ErrNoSession is returned when no persisted session exists.
	ErrNoSession = errors.New("no session")
	// ErrSessionCorrupt is returned when the persisted session fails
	// integrity checks; cleanup has been scheduled.
	ErrSessionCorrupt = errors.New("session corrupt")
	// ErrSessionInvalid is returned when a freshly built session fails
	// validation before persisting.
	ErrSessionInvalid = errors.New("session invalid")
	// ErrSessionExpired is returned when the locally cached token has
	// expired and could not be refreshed.
	ErrSessionExpired = errors.New("session expired")
	// ErrProviderDenied is returned when the identity provider explicitly
	// rejects the cached identity.
	ErrProviderDenied = errors.New("identity provider denied session")
	// ErrProviderUnavailable is returned when the provider could not be
	// reached within the retry budget.
	ErrProviderUnavailable = errors.New("identity provider unavailable")
	// ErrNoIdentity is returned when the provider reports no signed-in user.
	ErrNoIdentity = errors.New("no authenticated identity")
	// ErrIdentityMismatch is returned when the provider's current user does
	// not match the persisted session.
	ErrIdentityMismatch = errors.New("identity mismatch")
	// ErrStoreUnavailable is returned when the persistent key-value layer
	// cannot be reached.
	ErrStoreUnavailable = errors.New("persistent store unavailable")
)
