// Package apicors provides CORS middleware for the token-authenticated API.
//
// Requests carry a bearer token rather than cookies, so there are no
// credentials to protect and any origin may call the API. This is more
// permissive than the cookie-session CORS the core config applies elsewhere.
package apicors

import (
	"net/http"
)

// Middleware returns permissive CORS middleware for token-authenticated
// endpoints. Preflight OPTIONS requests are answered directly.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
