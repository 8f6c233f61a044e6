package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// ServiceAuth gates requests on a shared bearer token. The ledger is an
// internal service; its callers (API layer, billing webhook relay, identity
// provisioner) hold the same deployment-scoped credential. An empty token
// disables the check for local development.
func ServiceAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
