package middleware

import (
	"net/http"
)

// CSRFHeader carries the anti-forgery token on every mutating request.
const CSRFHeader = "X-CSRF-Token"

// CSRFValidator checks an anti-forgery token against the user it was issued for.
type CSRFValidator interface {
	Validate(userID, token string) error
}

// CSRF returns middleware that rejects mutating requests whose anti-forgery
// header is missing or invalid, before any store access happens. Must run
// after Auth so the claims are in context.
func CSRF(validator CSRFValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			token := r.Header.Get(CSRFHeader)
			if token == "" {
				writeJSONError(w, http.StatusForbidden, "missing anti-forgery token")
				return
			}
			if err := validator.Validate(claims.UserID, token); err != nil {
				writeJSONError(w, http.StatusForbidden, "invalid anti-forgery token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
