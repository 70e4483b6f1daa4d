package session

import (
	"strings"
	"time"
)

// Provider tags recognized by validation. Anything else fails Valid.
const (
	ProviderPassword  = "password"
	ProviderGoogle    = "google.com"
	ProviderApple     = "apple.com"
	ProviderAnonymous = "anonymous"
)

const (
	// ExpiryWarningWindow is how close to expiry a session triggers
	// proactive refresh.
	ExpiryWarningWindow = 5 * time.Minute

	// maxClockDrift bounds how far session timestamps may sit from the
	// current wall clock in either direction.
	maxClockDrift = 365 * 24 * time.Hour

	minUserIDLen = 1
	maxUserIDLen = 128
)

// Data is an immutable session snapshot. Refresh supersedes a value via
// [Data.WithRefreshedToken]; nothing mutates an existing instance.
type Data struct {
	UserID      string
	Email       string
	DisplayName string
	TokenExpiry time.Time
	LastRefresh time.Time
	Provider    string
}

func knownProvider(tag string) bool {
	switch tag {
	case ProviderPassword, ProviderGoogle, ProviderApple, ProviderAnonymous:
		return true
	default:
		return false
	}
}

// plausibleEmail checks the minimal structural shape: one non-leading,
// non-trailing @ with a dotted domain. Full RFC validation is the identity
// provider's problem, not ours.
func plausibleEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.IndexByte(domain, '@') >= 0 {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// ValidAt reports whether the snapshot is structurally and temporally
// consistent relative to now. It never panics.
func (d *Data) ValidAt(now time.Time) bool {
	if d == nil {
		return false
	}
	if len(d.UserID) < minUserIDLen || len(d.UserID) > maxUserIDLen {
		return false
	}
	if !knownProvider(d.Provider) {
		return false
	}
	if d.TokenExpiry.IsZero() || d.LastRefresh.IsZero() {
		return false
	}
	if d.LastRefresh.After(d.TokenExpiry) {
		return false
	}
	if d.TokenExpiry.Sub(now) > maxClockDrift || now.Sub(d.TokenExpiry) > maxClockDrift {
		return false
	}
	if d.LastRefresh.Sub(now) > maxClockDrift || now.Sub(d.LastRefresh) > maxClockDrift {
		return false
	}
	if d.Email != "" && !plausibleEmail(d.Email) {
		return false
	}
	return true
}

// Valid is [Data.ValidAt] against the current wall clock.
func (d *Data) Valid() bool {
	return d.ValidAt(time.Now())
}

// ExpiredAt reports whether the token expiry has passed at now.
func (d *Data) ExpiredAt(now time.Time) bool {
	if d == nil {
		return true
	}
	return !now.Before(d.TokenExpiry)
}

// Expired is [Data.ExpiredAt] against the current wall clock.
func (d *Data) Expired() bool {
	return d.ExpiredAt(time.Now())
}

// ExpiringSoonAt reports whether the token expires within the warning
// window at now. An already-expired token is also expiring soon.
func (d *Data) ExpiringSoonAt(now time.Time) bool {
	if d == nil {
		return true
	}
	return d.TokenExpiry.Sub(now) <= ExpiryWarningWindow
}

// ExpiringSoon is [Data.ExpiringSoonAt] against the current wall clock.
func (d *Data) ExpiringSoon() bool {
	return d.ExpiringSoonAt(time.Now())
}

// WithRefreshedToken returns a new snapshot with the given expiry and
// LastRefresh set to now. The receiver is untouched.
func (d *Data) WithRefreshedToken(newExpiry time.Time) *Data {
	next := *d
	next.TokenExpiry = newExpiry
	next.LastRefresh = time.Now()
	return &next
}

// Equal compares snapshots field by field with timestamp equality at
// millisecond precision (the codec's wire precision).
func (d *Data) Equal(other *Data) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.UserID == other.UserID &&
		d.Email == other.Email &&
		d.DisplayName == other.DisplayName &&
		d.Provider == other.Provider &&
		d.TokenExpiry.UnixMilli() == other.TokenExpiry.UnixMilli() &&
		d.LastRefresh.UnixMilli() == other.LastRefresh.UnixMilli()
}
