package middleware

import (
	"net/http"

	sessionvault "github.com/kestrelhq/sessionvault"
)

// RequireSession returns middleware that runs a full validity check on
// every request.
func RequireSession(manager *sessionvault.Manager) func(http.Handler) http.Handler {
	return Guard(manager, false)
}

// RequireSessionFast returns middleware that runs a fast-mode check,
// serving cached verdicts where fresh.
func RequireSessionFast(manager *sessionvault.Manager) func(http.Handler) http.Handler {
	return Guard(manager, true)
}
