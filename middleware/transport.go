package middleware

import (
	"net/http"

	sessionvault "github.com/kestrelhq/sessionvault"
)

// Transport is an http.RoundTripper that attaches the stored credential as
// a bearer token to outgoing requests.
type Transport struct {
	// Manager supplies the credential.
	Manager *sessionvault.Manager
	// Base performs the request after decoration. nil means
	// http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip attaches the Authorization header and delegates to Base. A
// missing or expired session fails the request before it leaves.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	token, err := t.Manager.BearerToken(r.Context())
	if err != nil {
		return nil, err
	}

	// Per RoundTripper contract the request is not mutated in place.
	clone := r.Clone(r.Context())
	clone.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
