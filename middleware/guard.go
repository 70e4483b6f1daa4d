package middleware

import (
	"context"
	"net/http"

	sessionvault "github.com/kestrelhq/sessionvault"
)

type validationResultContextKey struct{}

// ValidationFromContext returns the validation result a guard stored for
// the current request.
func ValidationFromContext(ctx context.Context) (sessionvault.ValidationResult, bool) {
	res, ok := ctx.Value(validationResultContextKey{}).(sessionvault.ValidationResult)
	return res, ok
}

// Guard returns middleware that rejects requests without a usable session.
// fast selects the fast-mode check.
func Guard(manager *sessionvault.Manager, fast bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res := manager.Validate(r.Context(), fast)
			if !res.Valid {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), validationResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
